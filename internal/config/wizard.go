package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it. API keys are never written by the wizard; they are
// read from the environment at load time.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to the cafeteria assistant! Let's configure it.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Execution mode.
	modePrompt := promptui.Select{
		Label: "Select execution mode",
		Items: []string{
			"hosted - hosted AI providers only",
			"local  - try a model on localhost:11434 first",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mode selection: %w", err)
	}
	cfg.Mode = []Mode{ModeHosted, ModeLocal}[modeIdx]

	// 2. Providers.
	for _, name := range DefaultOrder {
		pc := cfg.Providers.Ref(name)
		enablePrompt := promptui.Select{
			Label: fmt.Sprintf("Enable %s?", name),
			Items: []string{"yes", "no"},
		}
		if !pc.Enabled {
			enablePrompt.Items = []string{"no", "yes"}
		}
		_, answer, err := enablePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("%s selection: %w", name, err)
		}
		pc.Enabled = answer == "yes"

		if name == ProviderOllama && pc.Enabled {
			urlPrompt := promptui.Prompt{
				Label: "Ollama instance URL",
			}
			pc.BaseURL, err = urlPrompt.Run()
			if err != nil {
				return nil, fmt.Errorf("ollama url: %w", err)
			}
		}
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Directory holding menu, holiday and reservation files",
		Default: cfg.DataDir,
	}
	cfg.DataDir, err = dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Ledger backend.
	backendPrompt := promptui.Select{
		Label: "Sales ledger storage",
		Items: []string{"json", "sqlite"},
	}
	_, backend, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("ledger backend: %w", err)
	}
	cfg.Ledger.Backend = LedgerBackend(backend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, name := range DefaultOrder {
		pc := cfg.Providers.Ref(name)
		envVar := APIKeyEnvVar(name)
		if pc.Enabled && envVar != "" && os.Getenv(envVar) == "" && name != ProviderHuggingFace && name != ProviderOllama {
			fmt.Printf("Note: set %s in your environment before serving.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
