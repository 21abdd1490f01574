package main

import (
	"PhotoAlbum/config"
	"PhotoAlbum/pkg/auth"
	"PhotoAlbum/pkg/catalog"
	"PhotoAlbum/pkg/database"
	"PhotoAlbum/pkg/database/backend"
	"PhotoAlbum/pkg/logger"
	"PhotoAlbum/pkg/notify"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// openStore 在测试中被替换为共享的内存存储。
var openStore = backend.Open

// app 持有一次命令执行期间的全局参数和服务。
type app struct {
	configDir string
	output    string
	viewerID  int64

	store   database.Store
	catalog *catalog.Service
	auth    *auth.Service
}

func (a *app) viewer() catalog.Viewer {
	return catalog.Viewer{OwnerID: a.viewerID}
}

// newRootCmd 返回根命令和它的 app。执行结束后由 execute 负责释放存储，
// 因为命令失败时 cobra 不会调用 PersistentPostRunE。
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "album-cli",
		Short: "照片相册命令行工具",
		Long: `album-cli 直接访问相册存储，执行与 Web 界面相同的业务操作。

示例:
  album-cli albums
  album-cli album Summer --viewer 42
  album-cli search beach --output yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config", ".", "config.yaml 所在目录")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "输出格式: text 或 yaml")
	root.PersistentFlags().Int64Var(&a.viewerID, "viewer", 0, "以该 ownerID 的身份查看，0 表示匿名")

	root.AddCommand(
		newAlbumsCmd(a),
		newAlbumCmd(a),
		newCreateAlbumCmd(a),
		newPhotoCmd(a),
		newUpdatePhotoCmd(a),
		newAddTagCmd(a),
		newCommentsCmd(a),
		newCommentCmd(a),
		newSearchCmd(a),
		newRegisterCmd(a),
		newImportCmd(a),
	)
	return root, a
}

// execute 运行命令，无论成功与否都关闭存储。
func execute(ctx context.Context, root *cobra.Command, a *app) (err error) {
	defer func() {
		if cerr := a.teardown(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return root.ExecuteContext(ctx)
}

func (a *app) setup(ctx context.Context) error {
	if a.output != "text" && a.output != "yaml" {
		return fmt.Errorf("无效的输出格式: %s", a.output)
	}
	if err := config.LoadConfig(a.configDir, true); err != nil {
		return fmt.Errorf("无法加载配置: %w", err)
	}
	// 日志写到 stderr，stdout 只留给命令输出
	l, err := logger.New(os.Stderr, config.C.Logger)
	if err != nil {
		return err
	}
	slog.SetDefault(l)

	store, err := openStore(config.C.Database)
	if err != nil {
		return err
	}
	a.store = store
	a.catalog = catalog.New(store, notify.NewOutbox(l), l)
	a.auth = auth.NewService(store.Users(), store.Sequences())
	// 与服务端一样，启动时确保唯一索引存在
	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("无法创建索引: %w", err)
	}
	return nil
}

func (a *app) teardown() error {
	if a.catalog == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.catalog.Close(ctx)
}

// print 按 --output 输出：yaml 直接序列化 v，text 调用 text 渲染。
func (a *app) print(w io.Writer, v interface{}, text func(io.Writer)) error {
	if a.output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	text(w)
	return nil
}
