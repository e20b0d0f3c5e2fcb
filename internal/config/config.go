package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ardiustech/eng-ai-assistant/internal/defaults"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/keyring"
)

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	if err := merge(&c, data); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFile merges the YAML file at path over c. Fields absent from the file
// keep their current values; lists present in the file replace the
// existing ones.
func LoadFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &errdefs.NotFoundError{Kind: "file", Name: path}
		}
		return fmt.Errorf("read config: %w", err)
	}
	return merge(c, data)
}

func merge(c *Config, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty or other values return default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}

type Config struct {
	Browser Browser `yaml:"browser"`
	Output  Output  `yaml:"output"`
	Docs    Docs    `yaml:"docs"`
	Slack   Slack   `yaml:"slack"`
	Jira    Jira    `yaml:"jira"`
}

type Browser struct {
	Port           int           `yaml:"port"`
	Executable     string        `yaml:"executable"`
	ProfileDir     string        `yaml:"profile_dir"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	LaunchSettle   time.Duration `yaml:"launch_settle"`
	AttachSettle   time.Duration `yaml:"attach_settle"`
	LaunchArgs     []string      `yaml:"launch_args"`
}

type Output struct {
	Dir         string `yaml:"dir"`
	SaveJSON    bool   `yaml:"save_json"`
	SaveText    bool   `yaml:"save_txt"`
	Screenshots bool   `yaml:"screenshots"`
}

type Docs struct {
	HomeURL         string        `yaml:"home_url"`
	AuthTimeout     time.Duration `yaml:"auth_timeout"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
	PrimaryWait     time.Duration `yaml:"primary_wait"`
	FallbackWait    time.Duration `yaml:"fallback_wait"`
	Settle          time.Duration `yaml:"settle"`
	ViewportWidth   int           `yaml:"viewport_width"`
	ViewportHeight  int           `yaml:"viewport_height"`
}

type Slack struct {
	WorkspaceURL    string         `yaml:"workspace_url"`
	DMURL           string         `yaml:"dm_url"`
	UserAgent       string         `yaml:"user_agent"`
	NavigateTimeout time.Duration  `yaml:"navigate_timeout"`
	LoadTimeout     time.Duration  `yaml:"load_timeout"`
	RedirectWait    time.Duration  `yaml:"redirect_wait"`
	MarkerWait      time.Duration  `yaml:"marker_wait"`
	Settle          time.Duration  `yaml:"settle"`
	Selectors       SlackSelectors `yaml:"selectors"`
	Post            SlackPost      `yaml:"post"`
}

type SlackSelectors struct {
	UI          []string `yaml:"ui"`
	SignIn      []string `yaml:"sign_in"`
	Message     []string `yaml:"message"`
	Author      []string `yaml:"author"`
	Time        []string `yaml:"time"`
	Content     []string `yaml:"content"`
	Channel     []string `yaml:"channel"`
	BrowserLink string   `yaml:"browser_link"`
}

type SlackPost struct {
	Composer        string        `yaml:"composer"`
	SendButton      string        `yaml:"send_button"`
	ComposerTimeout time.Duration `yaml:"composer_timeout"`
	TypeDelay       time.Duration `yaml:"type_delay"`
	AfterNavigation time.Duration `yaml:"after_navigation"`
	AfterSend       time.Duration `yaml:"after_send"`
	AfterNewline    time.Duration `yaml:"after_newline"`
	AfterIndent     time.Duration `yaml:"after_indent"`
	Keymap          Keymap        `yaml:"keymap"`
}

// Keymap holds the key chords the composer understands, in playwright
// notation ("Shift+Enter", "ControlOrMeta+a").
type Keymap struct {
	SoftNewline string `yaml:"soft_newline"`
	Indent      string `yaml:"indent"`
	Outdent     string `yaml:"outdent"`
	ExitList    string `yaml:"exit_list"`
	SelectAll   string `yaml:"select_all"`
	Clear       string `yaml:"clear"`
}

type Jira struct {
	BaseURL    string        `yaml:"base_url"`
	Email      string        `yaml:"email"`
	Token      string        `yaml:"-"`
	ProjectKey string        `yaml:"project_key"`
	SearchPath string        `yaml:"search_path"`
	MyselfPath string        `yaml:"myself_path"`
	JQL        string        `yaml:"jql"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
	Fields     []string      `yaml:"fields"`
}

// ApplyEnv overlays environment variables on c. It is called after the
// embedded defaults and any --config file have been merged.
func ApplyEnv(c *Config) error {
	if v := firstEnv("BROWSER_DEBUG_PORT", "EDGE_DEBUG_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid debug port %q", v)
		}
		c.Browser.Port = port
	}
	setString(&c.Browser.Executable, "BROWSER_EXECUTABLE")
	setString(&c.Browser.ProfileDir, "BROWSER_PROFILE_DIR")
	setString(&c.Output.Dir, "ASSISTANT_OUTPUT_DIR")
	if v := os.Getenv("ASSISTANT_SAVE_JSON"); v != "" {
		c.Output.SaveJSON = parseBool(v, c.Output.SaveJSON)
	}
	if v := os.Getenv("ASSISTANT_SAVE_TXT"); v != "" {
		c.Output.SaveText = parseBool(v, c.Output.SaveText)
	}
	setString(&c.Slack.WorkspaceURL, "SLACK_WORKSPACE_URL")
	setString(&c.Slack.DMURL, "SLACK_DM_URL")
	setString(&c.Jira.BaseURL, "JIRA_BASE_URL")
	setString(&c.Jira.Email, "JIRA_EMAIL")
	setString(&c.Jira.ProjectKey, "JIRA_PROJECT_KEY")
	if v := firstEnv("ATLASSIAN_API_TOKEN", "JIRA_API_TOKEN"); v != "" {
		c.Jira.Token = v
	}

	if c.Browser.ProfileDir == "" {
		c.Browser.ProfileDir = defaults.ProfileDir()
	}
	if c.Output.Dir == "" {
		c.Output.Dir = defaults.OutputDir()
	}
	c.Jira.BaseURL = strings.TrimRight(c.Jira.BaseURL, "/")
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// ResolveToken fills Token from the OS keychain when no environment
// variable provided one.
func (j *Jira) ResolveToken() {
	if j.Token == "" {
		j.Token = keyring.Lookup(keyring.JiraTokenAccount)
	}
}

// Validate checks that every value needed to call the REST API is present.
// It runs before any network I/O.
func (j Jira) Validate() error {
	switch {
	case j.BaseURL == "":
		return &errdefs.NotFoundError{Kind: "config", Name: "JIRA_BASE_URL"}
	case !strings.HasPrefix(j.BaseURL, "http://") && !strings.HasPrefix(j.BaseURL, "https://"):
		return &errdefs.NotFoundError{Kind: "config", Name: "JIRA_BASE_URL",
			Hint: "JIRA_BASE_URL must start with https://, e.g. https://yourcompany.atlassian.net"}
	case j.Email == "":
		return &errdefs.NotFoundError{Kind: "config", Name: "JIRA_EMAIL"}
	case j.Token == "":
		return &errdefs.NotFoundError{Kind: "config", Name: "ATLASSIAN_API_TOKEN",
			Hint: "Set ATLASSIAN_API_TOKEN, or store a token with 'assistant jira login'."}
	}
	return nil
}

// ValidatePost returns the DM URL to post to: the explicit argument when
// given, else the configured one.
func (s Slack) ValidatePost(dmURL string) (string, error) {
	if dmURL == "" {
		dmURL = s.DMURL
	}
	if dmURL == "" {
		return "", &errdefs.NotFoundError{Kind: "config", Name: "SLACK_DM_URL",
			Hint: "Pass the DM URL as an argument or set SLACK_DM_URL."}
	}
	if !strings.Contains(dmURL, "slack.com") {
		return "", fmt.Errorf("not a Slack URL: %s", dmURL)
	}
	return dmURL, nil
}
