// Package tunnel exposes a locally-run backend through a third-party tunnel
// provider and points the deployed frontend's configuration at the
// provisioned public URL.
package tunnel

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/noteshub/backend/core"
)

const (
	// EnvKey is the env-file entry the frontend reads the API base URL from.
	EnvKey = "VITE_API_BASE_URL"

	// RewriteSource is the hosting rewrite rule pattern that proxies API
	// calls to the tunneled backend.
	RewriteSource = "/api/**"
)

// UpsertEnvKey ensures path holds exactly one `key=value` line: an existing
// line for the key gets its value replaced in place, otherwise the line is
// appended. All other lines are preserved untouched. Idempotent.
func UpsertEnvKey(path, key, value string) error {
	var lines []string
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrap(err, "reading env file")
		}
	} else {
		lines = strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
		if len(lines) == 1 && lines[0] == "" {
			lines = nil
		}
	}

	entry := key + "=" + value
	var replaced bool
	out := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), key+"=") {
			if replaced { // drop stray duplicates
				continue
			}
			out = append(out, entry)
			replaced = true
			continue
		}
		out = append(out, line)
	}
	if !replaced {
		out = append(out, entry)
	}

	return errors.Wrap(
		os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0o644),
		"writing env file",
	)
}

// UpsertRewriteRule points the hosting rewrite rule for RewriteSource at
// `<url>/api/**` in the firebase.json at path. An existing rule is
// overwritten in place (list length unchanged); a missing one is inserted at
// the front of the list. Every other part of the file is preserved.
// Idempotent.
func UpsertRewriteRule(path, url string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading firebase config")
	}

	var conf map[string]interface{}
	if err = json.Unmarshal(raw, &conf); err != nil {
		return errors.Wrap(err, "parsing firebase config")
	}

	hosting, ok := conf["hosting"].(map[string]interface{})
	if !ok {
		hosting = make(map[string]interface{})
		conf["hosting"] = hosting
	}
	rewrites, _ := hosting["rewrites"].([]interface{})

	destination := strings.TrimRight(url, "/") + "/api/**"

	var found bool
	for _, r := range rewrites {
		rule, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		if src, _ := rule["source"].(string); src == RewriteSource {
			rule["destination"] = destination
			found = true
			break
		}
	}
	if !found {
		rule := map[string]interface{}{"source": RewriteSource, "destination": destination}
		rewrites = append([]interface{}{rule}, rewrites...)
	}
	hosting["rewrites"] = rewrites

	out, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding firebase config")
	}
	return errors.Wrap(os.WriteFile(path, append(out, '\n'), 0o644), "writing firebase config")
}

// ConfigUpdater rewrites the local configuration files once a public URL is
// known. Failures are logged and swallowed: the tunnel itself must stay up
// even when config rewriting fails.
type ConfigUpdater struct {
	EnvPath      string
	FirebasePath string

	logger core.Logger
}

func NewConfigUpdater(envPath, firebasePath string, logger core.Logger) *ConfigUpdater {
	return &ConfigUpdater{EnvPath: envPath, FirebasePath: firebasePath, logger: logger}
}

func (u *ConfigUpdater) Apply(url string) {
	if err := UpsertEnvKey(u.EnvPath, EnvKey, url); err != nil {
		u.logger.Error(fmt.Sprintf("updating %s: %v", u.EnvPath, err), err)
	} else {
		u.logger.Info(fmt.Sprintf("%s: %s=%s", u.EnvPath, EnvKey, url))
	}

	if err := UpsertRewriteRule(u.FirebasePath, url); err != nil {
		u.logger.Error(fmt.Sprintf("updating %s: %v", u.FirebasePath, err), err)
	} else {
		u.logger.Info(fmt.Sprintf("%s: %s -> %s/api/**", u.FirebasePath, RewriteSource, strings.TrimRight(url, "/")))
	}
}
