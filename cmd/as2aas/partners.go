package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/as2aas/domain"
)

// partnerFlags son los flags de alta/edición compartidos por partners y
// master-partners. Solo los flags tocados entran al patch.
type partnerFlags struct {
	name, as2ID, url, mdn       string
	sign, encrypt, compress, on bool
}

func (f *partnerFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "nombre del partner")
	fs.StringVar(&f.as2ID, "as2-id", "", "AS2 id del partner")
	fs.StringVar(&f.url, "url", "", "endpoint AS2 del partner")
	fs.StringVar(&f.mdn, "mdn-mode", "", "modo MDN: sync|async")
	fs.BoolVar(&f.sign, "sign", true, "firmar mensajes")
	fs.BoolVar(&f.encrypt, "encrypt", true, "encriptar mensajes")
	fs.BoolVar(&f.compress, "compress", false, "comprimir mensajes")
	fs.BoolVar(&f.on, "active", true, "partner activo")
}

func (f *partnerFlags) patch(cmd *cobra.Command) domain.PartnerPatch {
	fs := cmd.Flags()
	var p domain.PartnerPatch
	if fs.Changed("name") {
		p.Name = domain.Ptr(f.name)
	}
	if fs.Changed("as2-id") {
		p.AS2ID = domain.Ptr(f.as2ID)
	}
	if fs.Changed("url") {
		p.URL = domain.Ptr(f.url)
	}
	if fs.Changed("mdn-mode") {
		p.MDNMode = domain.Ptr(domain.MDNMode(f.mdn))
	}
	if fs.Changed("sign") {
		p.Sign = domain.Ptr(f.sign)
	}
	if fs.Changed("encrypt") {
		p.Encrypt = domain.Ptr(f.encrypt)
	}
	if fs.Changed("compress") {
		p.Compress = domain.Ptr(f.compress)
	}
	if fs.Changed("active") {
		p.Active = domain.Ptr(f.on)
	}
	return p
}

func printPartners(a *app, ps []domain.Partner) error {
	return a.print(ps, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tAS2 ID\tTYPE\tTENANT\tMDN\tACTIVE")
		for _, p := range ps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n", p.ID, p.Name, p.AS2ID, p.Kind(), p.TenantID(), p.MDNMode, p.Active)
		}
	})
}

func printPartner(a *app, p domain.Partner) error {
	return a.print(p, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "id:\t%s\n", p.ID)
		fmt.Fprintf(w, "name:\t%s\n", p.Name)
		fmt.Fprintf(w, "as2_id:\t%s\n", p.AS2ID)
		fmt.Fprintf(w, "url:\t%s\n", p.URL)
		fmt.Fprintf(w, "type:\t%s\n", p.Kind())
		if t := p.TenantID(); t != "" {
			fmt.Fprintf(w, "tenant:\t%s\n", t)
		}
		if m, ok := p.MasterID(); ok {
			fmt.Fprintf(w, "master:\t%s\n", m)
		}
		fmt.Fprintf(w, "sign/encrypt/compress:\t%t/%t/%t\n", p.Sign, p.Encrypt, p.Compress)
		fmt.Fprintf(w, "mdn_mode:\t%s\n", p.MDNMode)
		fmt.Fprintf(w, "active:\t%t\n", p.Active)
	})
}

func partnersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "partners", Short: "Partners del tenant (requiere --tenant)"}

	var (
		kind, search string
		active       bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Listar partners visibles para el tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			f := domain.PartnerFilter{Type: domain.PartnerKind(kind), Search: search}
			if cmd.Flags().Changed("active") {
				f.Active = domain.Ptr(active)
			}
			ps, err := c.Partners().List(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printPartners(a, ps)
		},
	}
	list.Flags().StringVar(&kind, "type", "", "filtrar por tipo: tenant|inherited")
	list.Flags().StringVar(&search, "search", "", "buscar en name y as2_id")
	list.Flags().BoolVar(&active, "active", true, "filtrar por estado")

	var byAS2 bool
	get := &cobra.Command{
		Use:   "get <id|as2-id>",
		Short: "Ver un partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			var p domain.Partner
			if byAS2 {
				p, err = c.Partners().GetByAS2ID(cmd.Context(), args[0])
			} else {
				p, err = c.Partners().Get(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printPartner(a, p)
		},
	}
	get.Flags().BoolVar(&byAS2, "as2", false, "buscar por AS2 id en vez de id")

	var pf partnerFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Crear un partner del tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			p, err := c.Partners().Create(cmd.Context(), pf.patch(cmd))
			if err != nil {
				return err
			}
			return printPartner(a, p)
		},
	}
	pf.bind(create)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Borrar un partner (en un heredado, corta la herencia)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			if err := c.Partners().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.done(map[string]any{"deleted": args[0]}, "deleted %s", args[0])
		},
	}

	cmd.AddCommand(list, get, create, del)
	return cmd
}

func masterPartnersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "master-partners", Short: "Master partners de la cuenta y su herencia"}

	list := &cobra.Command{
		Use:   "list",
		Short: "Listar master partners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			ps, err := c.MasterPartners().List(cmd.Context())
			if err != nil {
				return err
			}
			return printPartners(a, ps)
		},
	}

	var cf partnerFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Crear un master partner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			p, err := c.MasterPartners().Create(cmd.Context(), cf.patch(cmd))
			if err != nil {
				return err
			}
			return printPartner(a, p)
		},
	}
	cf.bind(create)

	var uf partnerFlags
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Actualizar un master partner y propagar a las proyecciones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			p, err := c.MasterPartners().Update(cmd.Context(), args[0], uf.patch(cmd))
			if err != nil {
				return err
			}
			return printPartner(a, p)
		},
	}
	uf.bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Borrar un master partner y todas sus proyecciones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			if err := c.MasterPartners().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.done(map[string]any{"deleted": args[0]}, "deleted %s", args[0])
		},
	}

	var (
		inheritTenants string
		of             partnerFlags
	)
	inherit := &cobra.Command{
		Use:   "inherit <id>",
		Short: "Heredar un master partner a tenants (los flags de partner son overrides)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			res, err := c.MasterPartners().Inherit(cmd.Context(), args[0], domain.InheritRequest{
				TenantIDs: splitCSV(inheritTenants),
				Overrides: of.patch(cmd),
			})
			if err != nil {
				return err
			}
			return a.print(res, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "inherited:\t%d\n", res.InheritedCount)
				fmt.Fprintln(w, "TENANT\tPARTNER\tINHERITANCE")
				for _, r := range res.Results {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.TenantID, r.InheritedPartnerID, r.InheritanceID)
				}
			})
		},
	}
	inherit.Flags().StringVar(&inheritTenants, "tenants", "", "ids de tenants separados por coma")
	of.bind(inherit)
	_ = inherit.MarkFlagRequired("tenants")

	var removeTenants string
	uninherit := &cobra.Command{
		Use:   "uninherit <id>",
		Short: "Quitar la herencia de un master partner en tenants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			n, err := c.MasterPartners().RemoveInheritance(cmd.Context(), args[0], splitCSV(removeTenants))
			if err != nil {
				return err
			}
			return a.done(map[string]any{"removed_count": n}, "removed %d", n)
		},
	}
	uninherit.Flags().StringVar(&removeTenants, "tenants", "", "ids de tenants separados por coma")
	_ = uninherit.MarkFlagRequired("tenants")

	status := &cobra.Command{
		Use:   "status <id>",
		Short: "Estado de herencia de un master partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			st, err := c.MasterPartners().InheritanceStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(st, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "master:\t%s (%s)\n", st.MasterPartner.Name, st.MasterPartner.ID)
				fmt.Fprintf(w, "tenants:\t%d\n", len(st.InheritedByTenants))
				fmt.Fprintln(w, "TENANT\tPARTNER\tOVERRIDES")
				for _, in := range st.InheritedByTenants {
					fmt.Fprintf(w, "%s\t%s\t%v\n", in.TenantID, in.InheritedPartnerID, in.Overrides.Fields())
				}
			})
		},
	}

	health := &cobra.Command{
		Use:   "health",
		Short: "Salud agregada de los master partners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			h, err := c.MasterPartners().Health(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(h, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "total:\t%d\n", h.TotalPartners)
				fmt.Fprintf(w, "healthy:\t%d\n", h.HealthyPartners)
				fmt.Fprintf(w, "average score:\t%.1f\n", h.AverageHealthScore)
			})
		},
	}

	cmd.AddCommand(list, create, update, del, inherit, uninherit, status, health)
	return cmd
}
