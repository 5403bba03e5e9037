package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gorm.io/datatypes"

	"careerPilot/internal/database"
	"careerPilot/internal/mailer"
	"careerPilot/internal/store"
)

type contactInput struct {
	Company    string
	Emails     []string
	Person     string
	Department string
	Phone      string
	Website    string
}

type contactStore interface {
	FindContactByCompany(ctx context.Context, company string) (*database.CompanyContact, error)
	CreateContact(ctx context.Context, c *database.CompanyContact) error
	ListContacts(ctx context.Context) ([]database.CompanyContact, error)
}

func addContact(ctx context.Context, s contactStore, in contactInput) (*database.CompanyContact, error) {
	company := strings.TrimSpace(in.Company)
	if company == "" {
		return nil, errors.New("company is required")
	}
	if len(in.Emails) == 0 {
		return nil, errors.New("at least one --email is required")
	}
	emails, err := mailer.ParseAddresses(in.Emails)
	if err != nil {
		return nil, err
	}

	switch _, err := s.FindContactByCompany(ctx, company); {
	case err == nil:
		return nil, fmt.Errorf("contact for %q already exists", company)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("query contact: %w", err)
	}

	contact := &database.CompanyContact{
		CompanyName:    company,
		EmailAddresses: datatypes.JSONSlice[string](emails),
		ContactPerson:  optional(in.Person),
		Department:     optional(in.Department),
		Phone:          optional(in.Phone),
		Website:        optional(in.Website),
	}
	if err := s.CreateContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func listContacts(ctx context.Context, s contactStore, w io.Writer) error {
	contacts, err := s.ListContacts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tEMAILS\tCONTACT")
	for _, c := range contacts {
		person := ""
		if c.ContactPerson != nil {
			person = *c.ContactPerson
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.CompanyName, strings.Join(c.EmailAddresses, ","), person)
	}
	return tw.Flush()
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
