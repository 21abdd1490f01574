package main

import (
	"PhotoAlbum/config"
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/importer"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		albumID    int64
		ownerID    int64
		visibility string
		tags       string
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "把目录中的图片批量导入到相册，所有者为 --owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workers") {
				workers = config.C.Import.Workers
			}
			opts := importer.Options{
				AlbumID:     albumID,
				OwnerID:     ownerID,
				Visibility:  models.Visibility(visibility),
				ThumbWidth:  config.C.Upload.ThumbWidth,
				ThumbHeight: config.C.Upload.ThumbHeight,
			}
			if tags != "" {
				opts.Tags = strings.Split(tags, ",")
			}

			report, err := importer.New(a.catalog, workers, nil).ImportDir(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), report, func(w io.Writer) {
				fmt.Fprintf(w, "已导入 %d 张照片，失败 %d 个文件\n", len(report.Imported), len(report.Failed))
				for _, f := range report.Failed {
					fmt.Fprintf(w, "  %s: %s\n", f.File, f.Reason)
				}
			})
		},
	}
	cmd.Flags().Int64Var(&albumID, "album", 0, "目标相册ID")
	cmd.Flags().Int64Var(&ownerID, "owner", 0, "照片所有者的 ownerID")
	cmd.Flags().StringVar(&visibility, "visibility", string(models.Public), "public 或 private")
	cmd.Flags().StringVar(&tags, "tags", "", "逗号分隔的标签，添加到每张照片")
	cmd.Flags().IntVar(&workers, "workers", 0, "并发数，默认读取 import.workers")
	_ = cmd.MarkFlagRequired("album")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
