package main

import (
	"PhotoAlbum/pkg/auth"
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword 在终端上关闭回显读取密码；输入不是终端时读取一行。
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "密码: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newRegisterCmd(a *app) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "注册新用户，密码从终端读取",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return fmt.Errorf("读取密码失败: %w", err)
			}
			user, err := a.auth.Register(cmd.Context(), auth.Registration{
				Name:     name,
				Email:    email,
				Username: args[0],
				Password: password,
			})
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), user, func(w io.Writer) {
				fmt.Fprintf(w, "已注册用户 %s (ownerID %d)\n", user.Username, user.OwnerID)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "显示名称")
	cmd.Flags().StringVar(&email, "email", "", "接收评论通知的邮箱")
	return cmd
}
