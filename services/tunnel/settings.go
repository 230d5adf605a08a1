package tunnel

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings configures the tunnel runner. It lives in a small YAML file so
// each developer can point it at their provider of choice.
type Settings struct {
	// Command launches the provider, eg.
	//   ["ngrok", "http", "--log", "stdout", "8000"]
	//   ["npx", "localtunnel", "--port", "8000"]
	Command []string `yaml:"command"`

	EnvFile      string `yaml:"env_file"`
	FirebaseFile string `yaml:"firebase_file"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Command:      []string{"ngrok", "http", "--log", "stdout", "8000"},
		EnvFile:      ".env.production",
		FirebaseFile: "firebase.json",
	}
}

// LoadSettings reads the YAML settings at path; absent fields keep their
// defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "reading tunnel settings")
	}
	if err = yaml.Unmarshal(raw, s); err != nil {
		return nil, errors.Wrap(err, "parsing tunnel settings")
	}
	if len(s.Command) == 0 {
		return nil, errors.New("tunnel settings: command is required")
	}
	return s, nil
}
