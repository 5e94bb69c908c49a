package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/as2aas/internal/util"
)

// utilsCmd agrupa helpers locales: no llaman a la API ni necesitan API key.
func utilsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "utils", Short: "Utilidades locales"}

	var content string
	contentType := &cobra.Command{
		Use:   "content-type [file]",
		Short: "Detectar el content type de un archivo o de --content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			body := content
			if len(args) == 1 {
				b, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				body, name = string(b), filepath.Base(args[0])
			} else if content == "" {
				return errors.New("pasar un archivo o --content")
			}
			ct := util.DetectContentType(body, name)
			return a.done(map[string]string{"content_type": ct}, "%s", ct)
		},
	}
	contentType.Flags().StringVar(&content, "content", "", "contenido literal")

	as2ID := &cobra.Command{
		Use:   "as2-id <company name>",
		Short: "Generar un AS2 id a partir del nombre de empresa",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := util.GenerateAS2ID(strings.Join(args, " "))
			return a.done(map[string]string{"as2_id": id}, "%s", id)
		},
	}

	fileSize := &cobra.Command{
		Use:   "file-size <bytes|file>",
		Short: "Formatear un tamaño en bytes (o el de un archivo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fi, serr := os.Stat(args[0])
				if serr != nil {
					return errors.New("se esperaba un número de bytes o un archivo existente")
				}
				n = fi.Size()
			}
			s := util.FormatFileSize(n)
			return a.done(map[string]any{"bytes": n, "formatted": s}, "%s", s)
		},
	}

	cmd.AddCommand(contentType, as2ID, fileSize)
	return cmd
}
