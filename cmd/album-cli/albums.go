package main

import (
	"PhotoAlbum/internal/models"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newAlbumsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "albums",
		Short: "列出所有相册",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			albums, err := a.catalog.ListAlbums(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), albums, func(w io.Writer) {
				for _, al := range albums {
					fmt.Fprintf(w, "%d\t%s\t(owner %d)\n", al.ID, al.Name, al.OwnerID)
				}
			})
		},
	}
}

// newAlbumCmd 按名称查找相册，并列出 --viewer 可见的照片。
func newAlbumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "album <name>",
		Short: "显示相册及其中可见的照片",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			album, err := a.catalog.GetAlbumByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			photos, err := a.catalog.ListPhotos(cmd.Context(), album.ID, a.viewer())
			if err != nil {
				return err
			}
			out := struct {
				Album  *models.Album  `yaml:"album"`
				Photos []models.Photo `yaml:"photos"`
			}{album, photos}
			return a.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "相册 %d: %s (owner %d)\n", album.ID, album.Name, album.OwnerID)
				writePhotoLines(w, photos)
			})
		},
	}
}

func newCreateAlbumCmd(a *app) *cobra.Command {
	var owner int64
	cmd := &cobra.Command{
		Use:   "create-album <name>",
		Short: "创建相册",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == 0 {
				owner = a.viewerID
			}
			album, err := a.catalog.CreateAlbum(cmd.Context(), args[0], owner)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), album, func(w io.Writer) {
				fmt.Fprintf(w, "已创建相册 %d: %s\n", album.ID, album.Name)
			})
		},
	}
	cmd.Flags().Int64Var(&owner, "owner", 0, "相册所有者的 ownerID，默认为 --viewer")
	return cmd
}

func writePhotoLines(w io.Writer, photos []models.Photo) {
	for _, p := range photos {
		fmt.Fprintf(w, "%d\t%s\t%s\t[%s]\n", p.ID, p.Title, p.Visibility, strings.Join(p.Tags, ", "))
	}
}
