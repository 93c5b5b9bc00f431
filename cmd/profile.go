package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cxc-checkin/internal/access"
	"cxc-checkin/internal/profiles"
	"cxc-checkin/internal/storage"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles, roles and NFC ids",
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles with their roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := provider.ListProfiles(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No profiles found")
			return nil
		}

		rbac, err := access.New(cfg.RBAC.PolicyFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PROFILE ID\tEMAIL\tROLE\tEFFECTIVE ROLES\tNFC ID")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, deref(p.Email), p.Role,
				strings.Join(rbac.ExpandRoles(string(p.Role)), ", "), deref(p.NfcID))
		}
		w.Flush()
		fmt.Printf("\nTotal profiles: %d\n", len(list))
		return nil
	},
}

var (
	profileID    string
	profileEmail string
	profileRole  string
)

var createProfileCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a profile for an auth user",
	RunE: func(cmd *cobra.Command, args []string) error {
		role := storage.Role(profileRole)
		if !role.Valid() {
			return fail("unknown role %q", profileRole)
		}
		id := profileID
		if id == "" {
			id = uuid.NewString()
		} else if _, err := uuid.Parse(id); err != nil {
			return fail("profile id must be a UUID: %w", err)
		}

		profile := &storage.Profile{ID: id, Role: role}
		if profileEmail != "" {
			profile.Email = &profileEmail
		}
		if err := provider.CreateProfile(cmd.Context(), profile); err != nil {
			return err
		}
		fmt.Printf("Created profile %s with role %s\n", profile.ID, profile.Role)
		return nil
	},
}

var roleProfileCmd = &cobra.Command{
	Use:   "role <profile-id> <role>",
	Short: "Change the role of a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := storage.Role(args[1])
		if !role.Valid() {
			return fail("unknown role %q", args[1])
		}
		if err := provider.UpdateProfileRole(cmd.Context(), args[0], role); err != nil {
			return err
		}
		fmt.Printf("Profile %s is now %s\n", args[0], role)
		return nil
	},
}

var nfcProfileCmd = &cobra.Command{
	Use:   "nfc <profile-id>",
	Short: "Print the NFC id of a profile, generating it when missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := profiles.NewService(provider, cfg.NFC.Secret).GetOrGenerateNfcID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func init() {
	createProfileCmd.Flags().StringVar(&profileID, "id", "", "auth user id (random UUID when empty)")
	createProfileCmd.Flags().StringVar(&profileEmail, "email", "", "email address")
	createProfileCmd.Flags().StringVar(&profileRole, "role", string(storage.RoleDefault), "profile role")

	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(listProfilesCmd, createProfileCmd, roleProfileCmd, nfcProfileCmd)
}
