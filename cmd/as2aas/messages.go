package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/as2aas/client"
	"github.com/dropDatabas3/as2aas/domain"
	"github.com/dropDatabas3/as2aas/internal/util"
)

func printMessage(a *app, m domain.Message) error {
	return a.print(m, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "id:\t%s\n", m.ID)
		if m.MessageID != "" {
			fmt.Fprintf(w, "message_id:\t%s\n", m.MessageID)
		}
		fmt.Fprintf(w, "partner:\t%s\n", m.PartnerID)
		fmt.Fprintf(w, "status:\t%s (%s)\n", m.Status, m.StatusDescription())
		if m.Direction != "" {
			fmt.Fprintf(w, "direction:\t%s\n", m.Direction)
		}
		if m.Subject != "" {
			fmt.Fprintf(w, "subject:\t%s\n", m.Subject)
		}
		fmt.Fprintf(w, "content_type:\t%s\n", m.ContentType)
		fmt.Fprintf(w, "size:\t%s\n", util.FormatFileSize(m.Bytes))
		if msg := m.ErrorMessage(); msg != "" {
			fmt.Fprintf(w, "error:\t%s\n", msg)
		}
	})
}

func messagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "messages", Short: "Envío y seguimiento de mensajes AS2 (requiere --tenant)"}

	var (
		partnerID, file, content, subject, contentType string
		wait                                           time.Duration
	)
	send := &cobra.Command{
		Use:   "send",
		Short: "Enviar un mensaje a un partner (--file o --content)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (file == "") == (content == "") {
				return errors.New("usar exactamente uno de --file o --content")
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			opts := domain.SendOptions{ContentType: contentType}
			var msg domain.Message
			if file != "" {
				msg, err = c.Messages().SendFile(cmd.Context(), partnerID, file, subject, opts)
			} else {
				msg, err = c.Messages().Send(cmd.Context(), partnerID, content, subject, opts)
			}
			if err != nil {
				return err
			}
			if wait > 0 {
				msg, err = c.Messages().WaitForDelivery(cmd.Context(), msg.ID, wait, client.WaitOptions{})
				if err != nil {
					return err
				}
			}
			return printMessage(a, msg)
		},
	}
	send.Flags().StringVar(&partnerID, "partner", "", "id del partner")
	send.Flags().StringVar(&file, "file", "", "archivo a enviar")
	send.Flags().StringVar(&content, "content", "", "contenido a enviar")
	send.Flags().StringVar(&subject, "subject", "", "asunto")
	send.Flags().StringVar(&contentType, "content-type", "", "content type (default: detectado)")
	send.Flags().DurationVar(&wait, "wait", 0, "esperar la entrega hasta este timeout")
	_ = send.MarkFlagRequired("partner")

	var payloadOut string
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Ver un mensaje (y opcionalmente bajar su payload)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			msg, err := c.Messages().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if payloadOut != "" {
				if _, err := c.Messages().Payload(cmd.Context(), msg.ID, client.PayloadOptions{SaveTo: payloadOut}); err != nil {
					return err
				}
				a.log.Info("payload saved", zap.String("path", payloadOut))
			}
			return printMessage(a, msg)
		},
	}
	get.Flags().StringVar(&payloadOut, "payload-out", "", "guardar el payload en este archivo")

	var f struct {
		partner, status, direction string
		limit, offset              int
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "Listar mensajes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			page, err := c.Messages().List(cmd.Context(), domain.MessageFilter{
				PartnerID: f.partner,
				Status:    domain.MessageStatus(f.status),
				Direction: domain.Direction(f.direction),
				Limit:     f.limit,
				Offset:    f.offset,
			})
			if err != nil {
				return err
			}
			return a.print(page, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tPARTNER\tSTATUS\tDIRECTION\tCONTENT TYPE\tSIZE")
				for _, m := range page.Data {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.PartnerID, m.Status, m.Direction, m.ContentType, util.FormatFileSize(m.Bytes))
				}
				more := ""
				if page.HasMore {
					more = " (more)"
				}
				fmt.Fprintf(w, "total: %d%s\n", page.Total, more)
			})
		},
	}
	list.Flags().StringVar(&f.partner, "partner", "", "filtrar por partner")
	list.Flags().StringVar(&f.status, "status", "", "filtrar por estado")
	list.Flags().StringVar(&f.direction, "direction", "", "inbound|outbound")
	list.Flags().IntVar(&f.limit, "limit", domain.DefaultMessageLimit, "tamaño de página")
	list.Flags().IntVar(&f.offset, "offset", 0, "offset")

	var (
		timeout, interval time.Duration
	)
	waitCmd := &cobra.Command{
		Use:   "wait <id>",
		Short: "Esperar la entrega de un mensaje",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			msg, err := c.Messages().WaitForDelivery(cmd.Context(), args[0], timeout, client.WaitOptions{Interval: interval})
			if err != nil {
				return err
			}
			return printMessage(a, msg)
		},
	}
	waitCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "timeout total")
	waitCmd.Flags().DurationVar(&interval, "interval", client.DefaultWaitInterval, "intervalo de polling")

	cmd.AddCommand(send, get, list, waitCmd)
	return cmd
}

func tenantsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "tenants", Short: "Tenants de la cuenta"}

	list := &cobra.Command{
		Use:   "list",
		Short: "Listar tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			ts, err := c.Tenants().List(cmd.Context())
			if err != nil {
				return err
			}
			current, _ := c.CurrentTenant()
			return a.print(ts, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "\tID\tNAME\tSLUG\tSTATUS")
				for _, t := range ts {
					mark := ""
					if string(t.ID) == current {
						mark = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, t.ID, t.Name, t.Slug, t.Status)
				}
			})
		},
	}

	get := &cobra.Command{
		Use:   "get [id]",
		Short: "Ver un tenant (sin id, el actual)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			var t domain.Tenant
			if len(args) == 1 {
				t, err = c.Tenants().Get(cmd.Context(), args[0])
			} else {
				t, err = c.Tenants().Current(cmd.Context())
			}
			if err != nil {
				return err
			}
			return a.print(t, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "id:\t%s\n", t.ID)
				fmt.Fprintf(w, "account:\t%s\n", t.AccountID)
				fmt.Fprintf(w, "name:\t%s\n", t.Name)
				fmt.Fprintf(w, "slug:\t%s\n", t.Slug)
				fmt.Fprintf(w, "status:\t%s\n", t.Status)
			})
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}
