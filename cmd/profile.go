package cmd

import (
	"fmt"
	"log"
	"slices"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriAgent/internal/config"
	"github.com/Rorical/RoriAgent/internal/prompts"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage API profiles",
	Long:  `Manage API profiles for different providers, models and personas.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		fmt.Printf("Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Println("Available Profiles:")
		for _, name := range cfg.ProfileNames() {
			profile := cfg.Profiles[name]
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			fmt.Printf("    Model: %s\n", orDefault(profile.Model, config.DefaultModel))
			if profile.BaseURL != "" {
				fmt.Printf("    Base URL: %s\n", profile.BaseURL)
			}
			fmt.Printf("    Persona: %s\n", orDefault(profile.Persona, config.DefaultPersona))
			hasKey := "No"
			if profile.APIKey != "" {
				hasKey = "Yes"
			}
			fmt.Printf("    API Key: %s\n", hasKey)
			fmt.Println()
		}
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		profileName := args[0]
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		fmt.Printf("Profile: %s\n", profileName)
		fmt.Printf("Model: %s\n", orDefault(profile.Model, config.DefaultModel))
		fmt.Printf("Base URL: %s\n", orDefault(profile.BaseURL, config.DefaultBaseURL))
		fmt.Printf("Persona: %s\n", orDefault(profile.Persona, config.DefaultPersona))
		hasKey := "Not set"
		if profile.APIKey != "" {
			hasKey = "Set (hidden for security)"
		}
		fmt.Printf("API Key: %s\n", hasKey)
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			prompt := promptui.Prompt{Label: "Profile name"}
			var err error
			if profileName, err = prompt.Run(); err != nil {
				log.Fatalf("Prompt failed: %v", err)
			}
		}

		profile := promptProfile(config.Profile{
			Model:   config.DefaultModel,
			BaseURL: config.DefaultBaseURL,
			Persona: config.DefaultPersona,
		})
		if err := cfg.AddProfile(profileName, profile); err != nil {
			log.Fatalf("Failed to add profile: %v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' added successfully!\n", profileName)
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		profileName := selectProfile(cfg, args, "Select profile to edit", "")
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		if err := cfg.UpdateProfile(profileName, promptProfile(profile)); err != nil {
			log.Fatalf("Failed to update profile: %v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' updated successfully!\n", profileName)
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		profileName := selectProfile(cfg, args, "Select profile to delete", "")

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'", profileName),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Deletion cancelled")
			return
		}

		if err := cfg.DeleteProfile(profileName); err != nil {
			log.Fatalf("Failed to delete profile: %v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' deleted successfully! Active profile: %s\n", profileName, cfg.ActiveProfile)
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		profileName := selectProfile(cfg, args, "Select profile to switch to", cfg.ActiveProfile)
		if err := cfg.Switch(profileName); err != nil {
			log.Fatalf("Failed to switch profile: %v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Switched to profile '%s'\n", profileName)
	},
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}

// selectProfile returns args[0] when given, otherwise lets the user pick a
// profile other than skip.
func selectProfile(cfg *config.Config, args []string, label, skip string) string {
	if len(args) > 0 {
		return args[0]
	}

	names := slices.DeleteFunc(cfg.ProfileNames(), func(name string) bool { return name == skip })
	if len(names) == 0 {
		log.Fatalf("No profiles available")
	}

	prompt := promptui.Select{Label: label, Items: names}
	_, name, err := prompt.Run()
	if err != nil {
		log.Fatalf("Selection failed: %v", err)
	}
	return name
}

// promptProfile asks for every profile field, offering current values as
// defaults.
func promptProfile(current config.Profile) config.Profile {
	run := func(prompt promptui.Prompt) string {
		value, err := prompt.Run()
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}
		return value
	}

	profile := current
	profile.APIKey = run(promptui.Prompt{Label: "API Key (empty uses HF_TOKEN)", Default: current.APIKey, Mask: '*'})
	profile.Model = run(promptui.Prompt{Label: "Model", Default: current.Model})
	profile.BaseURL = run(promptui.Prompt{Label: "Base URL", Default: current.BaseURL})

	personas := prompts.Names()
	cursor := max(slices.Index(personas, current.Persona), 0)
	selectPersona := promptui.Select{Label: "Persona", Items: personas, CursorPos: cursor}
	_, persona, err := selectPersona.Run()
	if err != nil {
		log.Fatalf("Selection failed: %v", err)
	}
	profile.Persona = persona

	return profile
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
