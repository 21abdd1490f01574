package main

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: 无效的ID %q", database.ErrInvalidInput, s)
	}
	return id, nil
}

func newPhotoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <id>",
		Short: "显示照片详情",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			photo, err := a.catalog.ViewPhoto(cmd.Context(), id, a.viewer())
			if err != nil {
				return err
			}
			// 缩略图是很长的 data URL，命令行里不输出
			photo.Thumbnail = ""
			return a.print(cmd.OutOrStdout(), photo, func(w io.Writer) {
				fmt.Fprintf(w, "ID:          %d\n", photo.ID)
				fmt.Fprintf(w, "文件名:      %s\n", photo.Filename)
				fmt.Fprintf(w, "标题:        %s\n", photo.Title)
				fmt.Fprintf(w, "描述:        %s\n", photo.Description)
				fmt.Fprintf(w, "可见性:      %s\n", photo.Visibility)
				fmt.Fprintf(w, "所有者:      %d\n", photo.OwnerID)
				fmt.Fprintf(w, "相册:        %v\n", photo.Albums)
				fmt.Fprintf(w, "标签:        %s\n", strings.Join(photo.Tags, ", "))
				fmt.Fprintf(w, "分辨率:      %s\n", photo.Resolution)
				fmt.Fprintf(w, "日期:        %s\n", photo.Date.Format("2006-01-02 15:04"))
			})
		},
	}
}

// newUpdatePhotoCmd 只修改显式给出的字段，其余字段沿用当前值。
func newUpdatePhotoCmd(a *app) *cobra.Command {
	var title, description, visibility, tags string
	cmd := &cobra.Command{
		Use:   "update-photo <id>",
		Short: "修改照片的标题、描述、可见性或标签",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := a.catalog.RequireOwner(cmd.Context(), id, a.viewer())
			if err != nil {
				return err
			}

			upd := database.PhotoUpdate{Title: current.Title, Description: current.Description}
			flags := cmd.Flags()
			if flags.Changed("title") {
				upd.Title = title
			}
			if flags.Changed("description") {
				upd.Description = description
			}
			if flags.Changed("visibility") {
				upd.Visibility = models.Visibility(visibility)
			}
			if flags.Changed("tags") {
				upd.Tags = strings.Split(tags, ",")
			}

			changed, err := a.catalog.UpdatePhoto(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]bool{"changed": changed}, func(w io.Writer) {
				if changed {
					fmt.Fprintf(w, "照片 %d 已更新\n", id)
				} else {
					fmt.Fprintf(w, "照片 %d 没有变化\n", id)
				}
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "新标题")
	cmd.Flags().StringVar(&description, "description", "", "新描述")
	cmd.Flags().StringVar(&visibility, "visibility", "", "public 或 private")
	cmd.Flags().StringVar(&tags, "tags", "", "逗号分隔的标签，整体替换")
	return cmd
}

func newAddTagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-tag <id> <tag>",
		Short: "给照片添加标签",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.catalog.RequireOwner(cmd.Context(), id, a.viewer()); err != nil {
				return err
			}
			added, err := a.catalog.AddTag(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]bool{"added": added}, func(w io.Writer) {
				if added {
					fmt.Fprintf(w, "已添加标签 %s\n", models.NormalizeTag(args[1]))
				} else {
					fmt.Fprintln(w, "标签已存在")
				}
			})
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "在公开照片的标题、描述和标签中搜索",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photos, err := a.catalog.Search(cmd.Context(), args[0], a.viewer())
			if err != nil {
				return err
			}
			for i := range photos {
				photos[i].Thumbnail = ""
			}
			return a.print(cmd.OutOrStdout(), photos, func(w io.Writer) {
				writePhotoLines(w, photos)
			})
		},
	}
}
