// Command shadow_compare replays read-only admin requests against this API
// and the legacy desktop backend and reports status or payload shape
// differences. Both sides are logged into with the same admin credentials.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type target struct {
	Path     string `yaml:"path"`
	Critical bool   `yaml:"critical"`
}

type targetFile struct {
	Targets []target `yaml:"targets"`
}

type side struct {
	name  string
	base  string
	token string
	// envelope is set when payloads are wrapped in {"data": ...}.
	envelope bool
}

type result struct {
	Target      target
	GoStatus    int
	LegacyCode  int
	MissingKeys []string
	ExtraKeys   []string
	Err         error
}

func (r result) diff() bool {
	return r.Err != nil || r.GoStatus != r.LegacyCode || len(r.MissingKeys) > 0
}

func main() {
	var (
		goBase      = flag.String("go-base", "http://localhost:8080/api", "Go API base URL")
		legacyBase  = flag.String("legacy-base", "http://localhost:5001/api", "legacy desktop backend base URL")
		targetsPath = flag.String("targets", filepath.Join("scripts", "shadow_compare", "targets.yaml"), "YAML targets file")
		username    = flag.String("username", os.Getenv("ADMIN_USERNAME"), "admin username")
		password    = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
		timeout     = flag.Duration("timeout", 10*time.Second, "HTTP client timeout")
	)
	flag.Parse()

	targets, err := loadTargets(*targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: *timeout}
	goSide := &side{name: "go", base: *goBase, envelope: true}
	legacySide := &side{name: "legacy", base: *legacyBase}
	for _, s := range []*side{goSide, legacySide} {
		if err := s.login(client, *username, *password); err != nil {
			log.Fatalf("%s login failed: %v", s.name, err)
		}
	}

	var breaking, optional int
	results := make([]result, 0, len(targets))
	for _, t := range targets {
		res := compare(client, goSide, legacySide, t)
		if res.diff() {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(os.Stdout, results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f targetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return f.Targets, nil
}

func (s *side) login(client *http.Client, username, password string) error {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := client.Post(s.url("/auth/login"), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	payload, err := s.decode(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	obj, _ := payload.(map[string]interface{})
	token, _ := obj["token"].(string)
	if token == "" {
		return fmt.Errorf("no token in login response")
	}
	s.token = token
	return nil
}

func (s *side) get(client *http.Client, path string) (int, interface{}, error) {
	req, err := http.NewRequest(http.MethodGet, s.url(path), nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	payload, err := s.decode(resp.Body)
	return resp.StatusCode, payload, err
}

func (s *side) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(s.base, "/") + path
}

// decode reads a JSON body and strips the response envelope when present.
func (s *side) decode(r io.Reader) (interface{}, error) {
	var payload interface{}
	if err := json.NewDecoder(r).Decode(&payload); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: decode body: %w", s.name, err)
	}
	if !s.envelope {
		return payload, nil
	}
	if obj, ok := payload.(map[string]interface{}); ok {
		if data, ok := obj["data"]; ok {
			return data, nil
		}
	}
	return payload, nil
}

func compare(client *http.Client, goSide, legacySide *side, t target) result {
	res := result{Target: t}
	var goBody, legacyBody interface{}
	if res.GoStatus, goBody, res.Err = goSide.get(client, t.Path); res.Err != nil {
		return res
	}
	if res.LegacyCode, legacyBody, res.Err = legacySide.get(client, t.Path); res.Err != nil {
		return res
	}
	res.MissingKeys, res.ExtraKeys = keyDiff(shape(legacyBody, ""), shape(goBody, ""))
	return res
}

// shape flattens an object into dotted key paths. Arrays contribute the
// shape of their first element.
func shape(v interface{}, prefix string) map[string]struct{} {
	keys := map[string]struct{}{}
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			keys[path] = struct{}{}
			for nested := range shape(child, path) {
				keys[nested] = struct{}{}
			}
		}
	case []interface{}:
		if len(val) > 0 {
			for nested := range shape(val[0], prefix+"[]") {
				keys[nested] = struct{}{}
			}
		}
	}
	return keys
}

// keyDiff lists keys expected by the legacy client that are missing from
// the Go payload, and keys only the Go payload has.
func keyDiff(legacy, current map[string]struct{}) (missing, extra []string) {
	for k := range legacy {
		if _, ok := current[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range current {
		if _, ok := legacy[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

func printReport(w io.Writer, results []result) {
	fmt.Fprintln(w, "Shadow Compare Report")
	fmt.Fprintln(w, "======================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if res.diff() {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] GET %s (critical: %t)\n", status, res.Target.Path, res.Target.Critical)
		if res.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", res.Err)
			continue
		}
		fmt.Fprintf(w, "  status go=%d legacy=%d\n", res.GoStatus, res.LegacyCode)
		if len(res.MissingKeys) > 0 {
			fmt.Fprintf(w, "  missing: %s\n", strings.Join(res.MissingKeys, ", "))
		}
		if len(res.ExtraKeys) > 0 {
			fmt.Fprintf(w, "  extra: %s\n", strings.Join(res.ExtraKeys, ", "))
		}
	}
}
