package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/david/grant-agent/internal/config"
)

type options struct {
	ServerURL string `long:"server" default:"http://localhost:8081" description:"Grant API base URL"`
}

func main() {
	var cmd options
	opts, err := config.LoadWith(&cmd)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if opts == nil {
		return
	}

	adminSecret := strings.TrimSpace(opts.AdminSecret)
	if adminSecret == "" {
		fmt.Println("Missing ADMIN_SECRET environment variable")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	base := strings.TrimRight(cmd.ServerURL, "/")

	token, err := fetchToken(client, base, adminSecret)
	if err != nil {
		fmt.Printf("Error obtaining token: %v\n", err)
		os.Exit(1)
	}

	endpoint := base + "/api/v1/ingest?source=" + url.QueryEscape(opts.Source)
	req, err := http.NewRequest(http.MethodPost, endpoint, nil)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response Status: %s\n%s\n", resp.Status, body)
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func fetchToken(client *http.Client, base, secret string) (string, error) {
	payload, err := json.Marshal(map[string]string{"secret": secret, "subject": "trigger"})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(base+"/api/v1/auth/token", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %s", resp.Status)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}
