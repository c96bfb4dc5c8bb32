package cmd

import (
	"github.com/spf13/cobra"

	"everp/internal/cli"
	"everp/internal/formatting"
	"everp/internal/gateway"
)

var profileOutput cli.OutputFlags

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your EVERP business profile",
	Long: `Show the business profile of the logged-in user.

Customers, suppliers and employees each have their own profile fields.

Examples:
  everp profile
  everp profile -o yaml`,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	cli.RegisterOutputFlags(profileCmd, &profileOutput)
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter, err := profileOutput.Formatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireSession(ctx); err != nil {
		return err
	}
	token, err := a.session.AccessToken()
	if err != nil {
		return cli.Translate(err)
	}

	profile, err := a.gateway.FetchProfile(ctx, token)
	if gateway.IsUnauthorized(err) {
		a.session.ReportUnauthorized(token, "profile request rejected")
	}
	if err != nil {
		return cli.Translate(err)
	}
	return formatter.FormatRecord(profileRecord(profile))
}

// profileRecord lays out whichever profile variant is set.
func profileRecord(p *gateway.Profile) *formatting.Record {
	r := &formatting.Record{}
	switch p.Kind {
	case gateway.ProfileCustomer:
		c := p.Customer
		r.Title, r.Data = "Customer profile", c
		r.Add("Name", c.CustomerName).
			Add("Email", c.Email).
			Add("Phone", c.PhoneNumber).
			Add("Company", c.CompanyName).
			Add("Business No.", c.BusinessNumber).
			Add("Office Phone", c.OfficePhone).
			Add("Address", joinAddress(c.BaseAddress, c.DetailAddress))
	case gateway.ProfileSupplier:
		s := p.Supplier
		r.Title, r.Data = "Supplier profile", s
		r.Add("Name", s.SupplierUserName).
			Add("Email", s.SupplierUserEmail).
			Add("Phone", s.SupplierUserPhoneNumber).
			Add("Company", s.CompanyName).
			Add("Business No.", s.BusinessNumber).
			Add("Office Phone", s.OfficePhone).
			Add("Address", joinAddress(s.BaseAddress, s.DetailAddress))
	case gateway.ProfileEmployee:
		e := p.Employee
		r.Title, r.Data = "Employee profile", e
		r.Add("Name", formatting.ValueOrPlaceholder(e.Name)).
			Add("Employee No.", formatting.ValueOrPlaceholder(e.EmployeeNumber)).
			Add("Department", formatting.ValueOrPlaceholder(e.Department)).
			Add("Position", formatting.ValueOrPlaceholder(e.Position)).
			Add("Hire Date", formatting.ValueOrPlaceholder(e.HireDate)).
			Add("Service Years", formatting.ValueOrPlaceholder(e.ServiceYears)).
			Add("Email", formatting.ValueOrPlaceholder(e.Email)).
			AddOptional("Phone", e.PhoneNumber).
			AddOptional("Address", e.Address)
	}
	return r
}

func joinAddress(base, detail string) string {
	switch {
	case base == "":
		return detail
	case detail == "":
		return base
	default:
		return base + " " + detail
	}
}
