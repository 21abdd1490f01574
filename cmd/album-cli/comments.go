package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCommentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <photo-id>",
		Short: "按时间顺序列出照片的评论",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.catalog.ViewPhoto(cmd.Context(), id, a.viewer()); err != nil {
				return err
			}
			comments, err := a.catalog.ListComments(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), comments, func(w io.Writer) {
				for _, c := range comments {
					fmt.Fprintf(w, "[%s] %s: %s\n", c.Date.Format("2006-01-02 15:04"), c.Username, c.Text)
				}
			})
		},
	}
}

func newCommentCmd(a *app) *cobra.Command {
	var user, text string
	cmd := &cobra.Command{
		Use:   "comment <photo-id>",
		Short: "以 --user 的身份发表评论",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			viewer := a.viewer()
			viewer.Username = user
			if _, err := a.catalog.ViewPhoto(cmd.Context(), id, viewer); err != nil {
				return err
			}
			if err := a.catalog.AddComment(cmd.Context(), id, viewer, text); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]bool{"added": true}, func(w io.Writer) {
				fmt.Fprintf(w, "已评论照片 %d\n", id)
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "评论者用户名")
	cmd.Flags().StringVar(&text, "text", "", "评论内容")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
