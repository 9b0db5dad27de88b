package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/probill/internal/app"
	"github.com/rpggio/probill/internal/sqlite"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// app.New migrates on open
			a, err := app.New(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", c.cfg.DB.Path)
			return nil
		},
	}
}

func newBusinessCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "business",
		Short: "Manage businesses and their members",
	}

	var id, name, owner string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a business with its owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if name == "" {
				name = id
			}
			if err := a.Members.CreateBusiness(cmd.Context(), id, name); err != nil {
				return fmt.Errorf("create business: %w", err)
			}
			if err := a.Members.SetMember(cmd.Context(), id, owner, sqlite.RoleOwner); err != nil {
				return fmt.Errorf("add owner: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created business %s owned by %s\n", id, owner)
			return nil
		},
	}
	create.Flags().StringVar(&id, "id", "", "business ID")
	create.Flags().StringVar(&name, "name", "", "business name (defaults to the ID)")
	create.Flags().StringVar(&owner, "owner", "", "actor ID of the owner")
	_ = create.MarkFlagRequired("id")
	_ = create.MarkFlagRequired("owner")

	var business, actor, role string
	member := &cobra.Command{
		Use:   "member",
		Short: "Add a member to a business or change its role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Members.SetMember(cmd.Context(), business, actor, sqlite.Role(role)); err != nil {
				return fmt.Errorf("set member: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s of %s\n", actor, role, business)
			return nil
		},
	}
	member.Flags().StringVar(&business, "business", "", "business ID")
	member.Flags().StringVar(&actor, "actor", "", "actor ID")
	member.Flags().StringVar(&role, "role", string(sqlite.RoleMember), "owner, admin or member")
	_ = member.MarkFlagRequired("business")
	_ = member.MarkFlagRequired("actor")

	cmd.AddCommand(create, member)
	return cmd
}

func newAPIKeyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for the HTTP transport",
	}

	var business, actor, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key; the token is printed once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.APIKeys.Create(cmd.Context(), business, actor, description)
			if err != nil {
				return fmt.Errorf("create api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	create.Flags().StringVar(&business, "business", "", "business ID")
	create.Flags().StringVar(&actor, "actor", "", "actor ID the key acts as")
	create.Flags().StringVar(&description, "description", "", "free text shown in listings")
	_ = create.MarkFlagRequired("business")
	_ = create.MarkFlagRequired("actor")

	cmd.AddCommand(create)
	return cmd
}
