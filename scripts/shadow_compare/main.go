// shadow_compare replays read-only inventory requests against two deployments and
// reports status or body drift. Volatile fields (timestamps, processing time, cache
// flags) are ignored.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type target struct {
	Method   string `yaml:"method"`
	Path     string `yaml:"path"`
	Critical bool   `yaml:"critical"`
}

type targetFile struct {
	Ignore  []string `yaml:"ignore"`
	Targets []target `yaml:"targets"`
}

type endpoint struct {
	name  string
	base  string
	token string
}

type comparison struct {
	Target          target
	PrimaryStatus   int
	ShadowStatus    int
	StatusMatch     bool
	BodyMatch       bool
	Error           error
	PrimaryDuration time.Duration
	ShadowDuration  time.Duration
}

var defaultIgnored = []string{"processing_time_ms", "cache_hit", "generated_at", "last_activity", "timestamp"}

func main() {
	var (
		primary     endpoint
		shadow      endpoint
		targetsPath string
		timeout     time.Duration
	)

	pflag.StringVar(&primary.base, "primary", "http://localhost:8080", "primary inventory API base URL")
	pflag.StringVar(&primary.token, "primary-token", os.Getenv("SHADOW_PRIMARY_TOKEN"), "bearer token for the primary API")
	pflag.StringVar(&shadow.base, "shadow", "http://localhost:8081", "shadow inventory API base URL")
	pflag.StringVar(&shadow.token, "shadow-token", os.Getenv("SHADOW_TOKEN"), "bearer token for the shadow API")
	pflag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.yaml"), "YAML targets file")
	pflag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	pflag.Parse()
	primary.name, shadow.name = "primary", "shadow"

	file, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}
	ignored := make(map[string]bool)
	for _, key := range append(defaultIgnored, file.Ignore...) {
		ignored[key] = true
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []comparison
		breaking int
		optional int
	)
	for _, t := range file.Targets {
		res := compareTarget(client, primary, shadow, t, ignored)
		drift := res.Error != nil || !res.StatusMatch || !res.BodyMatch
		switch {
		case drift && t.Critical:
			breaking++
		case drift:
			optional++
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) (*targetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	for _, t := range file.Targets {
		if m := strings.ToUpper(strings.TrimSpace(t.Method)); m != "" && m != http.MethodGet {
			return nil, fmt.Errorf("target %s: only GET requests can be shadowed", t.Path)
		}
	}
	return &file, nil
}

func compareTarget(client *http.Client, primary, shadow endpoint, tgt target, ignored map[string]bool) comparison {
	res := comparison{Target: tgt}
	primaryBody, primaryStatus, primaryDur, err := fetch(client, primary, tgt)
	if err != nil {
		res.Error = fmt.Errorf("%s request failed: %w", primary.name, err)
		return res
	}
	shadowBody, shadowStatus, shadowDur, err := fetch(client, shadow, tgt)
	if err != nil {
		res.Error = fmt.Errorf("%s request failed: %w", shadow.name, err)
		return res
	}

	res.PrimaryStatus, res.ShadowStatus = primaryStatus, shadowStatus
	res.PrimaryDuration, res.ShadowDuration = primaryDur, shadowDur
	res.StatusMatch = primaryStatus == shadowStatus
	res.BodyMatch = bodiesEqual(primaryBody, shadowBody, ignored)
	return res
}

func fetch(client *http.Client, ep endpoint, tgt target) ([]byte, int, time.Duration, error) {
	if client == nil {
		return nil, 0, 0, errors.New("nil client")
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(ep.base, "/")+path, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if ep.token != "" {
		req.Header.Set("Authorization", "Bearer "+ep.token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, time.Since(start), nil
}

func bodiesEqual(a, b []byte, ignored map[string]bool) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	return reflect.DeepEqual(normalize(aj, ignored), normalize(bj, ignored))
}

// normalize drops ignored keys and folds integral floats so 1 and 1.0 compare equal.
func normalize(v interface{}, ignored map[string]bool) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if ignored[k] {
				continue
			}
			out[k] = normalize(child, ignored)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = normalize(child, ignored)
		}
		return out
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	default:
		return val
	}
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("=====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] GET %s\n", status, res.Target.Path)
		fmt.Printf("  primary: %d (%s)  shadow: %d (%s)\n", res.PrimaryStatus, res.PrimaryDuration, res.ShadowStatus, res.ShadowDuration)
		if res.Error != nil {
			fmt.Printf("  error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  status match: %t | body match: %t | critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
	}
}
