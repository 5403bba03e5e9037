package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"careerPilot/internal/config"
	"careerPilot/internal/database"
	"careerPilot/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "admin",
		Short:        "careerPilot 运维命令",
		SilenceUsage: true,
	}

	var dsn string
	root.PersistentFlags().StringVar(&dsn, "database-url", "", "数据库连接串（可选，默认读 DATABASE_URL 等环境变量）")

	open := func() (*gorm.DB, error) {
		cfg := config.DatabaseConfig{URL: dsn}
		if dsn == "" {
			loaded, err := config.LoadDatabase()
			if err != nil {
				return nil, fmt.Errorf("load database config: %w", err)
			}
			cfg = loaded
		}
		db, err := database.InitDatabase(cfg)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		return db, nil
	}

	root.AddCommand(newMigrateCmd(open), newContactCmd(open))
	return root
}

type opener func() (*gorm.DB, error)

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建或更新数据表",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database migrated")
			return nil
		},
	}
}

func newContactCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "管理公司联系人",
	}

	var in contactInput
	add := &cobra.Command{
		Use:   "add",
		Short: "登记公司联系人",
		Example: `  admin contact add --company "Acme Corp" --email hr@acme.io --email jobs@acme.io
  admin contact add --company Globex --email talent@globex.com --person "Hank Scorpio"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			defer database.Close(db)

			contact, err := addContact(cmd.Context(), store.New(db), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "contact %s created for %s (%d addresses)\n",
				contact.ID, contact.CompanyName, len(contact.EmailAddresses))
			return nil
		},
	}
	add.Flags().StringVar(&in.Company, "company", "", "公司名（必填）")
	add.Flags().StringArrayVar(&in.Emails, "email", nil, "收件邮箱，可重复")
	add.Flags().StringVar(&in.Person, "person", "", "联系人")
	add.Flags().StringVar(&in.Department, "department", "", "部门")
	add.Flags().StringVar(&in.Phone, "phone", "", "电话")
	add.Flags().StringVar(&in.Website, "website", "", "公司网站")
	_ = add.MarkFlagRequired("company")
	_ = add.MarkFlagRequired("email")

	list := &cobra.Command{
		Use:   "list",
		Short: "列出公司联系人",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			defer database.Close(db)

			return listContacts(cmd.Context(), store.New(db), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
