/*-------------------------------------------------------------------------
 *
 * client.go
 *    HTTP client for NeuronChat API
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cli/pkg/client/client.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Turn struct {
	SessionID string                 `json:"session_id"`
	Message   string                 `json:"message"`
	Action    string                 `json:"action"`
	Workflow  string                 `json:"workflow,omitempty"`
	Completed bool                   `json:"completed,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

type Session struct {
	SessionID      string `json:"session_id"`
	UserID         string `json:"user_id,omitempty"`
	CreatedAt      string `json:"created_at"`
	LastActivityAt string `json:"last_activity_at"`
	ExpiresAt      string `json:"expires_at"`
}

type Workflow struct {
	ID   string `json:"id"`
	Goal string `json:"goal,omitempty"`
}

type Node struct {
	Slug        string   `json:"Slug"`
	Name        string   `json:"Name"`
	Endpoint    string   `json:"Endpoint"`
	Collections []string `json:"Collections,omitempty"`
	DataTypes   []string `json:"DataTypes,omitempty"`
	Keywords    []string `json:"Keywords,omitempty"`
	Collectors  []string `json:"Collectors,omitempty"`
	Workflows   []string `json:"Workflows,omitempty"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

/* Chat sends one message and returns the orchestrated reply */
func (c *Client) Chat(sessionID, userID, message string) (*Turn, error) {
	body := map[string]interface{}{
		"session_id": sessionID,
		"message":    message,
	}
	if userID != "" {
		body["user_id"] = userID
	}

	turn := &Turn{}
	if err := c.post("/v1/chat", body, turn); err != nil {
		return nil, err
	}
	return turn, nil
}

/* ListSessions returns stored sessions */
func (c *Client) ListSessions(limit int) ([]Session, error) {
	var resp struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.get(fmt.Sprintf("/v1/sessions?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

/* GetSession returns one session with its stored context */
func (c *Client) GetSession(sessionID string) (map[string]interface{}, error) {
	var resp map[string]interface{}
	if err := c.get("/v1/sessions/"+sessionID, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

/* DeleteSession removes a session */
func (c *Client) DeleteSession(sessionID string) error {
	return c.do(http.MethodDelete, "/v1/sessions/"+sessionID, nil, nil)
}

/* ListNodes returns registered federation nodes */
func (c *Client) ListNodes() ([]Node, error) {
	var resp struct {
		Nodes []Node `json:"nodes"`
	}
	if err := c.get("/v1/nodes", &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

/* RegisterNode registers a federation node */
func (c *Client) RegisterNode(node *Node) error {
	body := map[string]interface{}{
		"slug":        node.Slug,
		"name":        node.Name,
		"endpoint":    node.Endpoint,
		"collections": node.Collections,
		"data_types":  node.DataTypes,
		"keywords":    node.Keywords,
		"collectors":  node.Collectors,
		"workflows":   node.Workflows,
	}
	return c.post("/v1/nodes", body, nil)
}

/* ListWorkflows returns the workflows registered on the server */
func (c *Client) ListWorkflows() ([]Workflow, error) {
	var resp struct {
		Workflows []Workflow `json:"workflows"`
	}
	if err := c.get("/v1/workflows", &resp); err != nil {
		return nil, err
	}
	return resp.Workflows, nil
}

/* DeregisterNode removes a federation node */
func (c *Client) DeregisterNode(slug string) error {
	return c.do(http.MethodDelete, "/v1/nodes/"+slug, nil, nil)
}

func (c *Client) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *Client) post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("request encoding failed: path='%s', error=%w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: path='%s', error=%w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: path='%s', error=%w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("response read failed: path='%s', error=%w", path, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("request rejected: path='%s', status=%d, message='%s'", path, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("request rejected: path='%s', status=%d", path, resp.StatusCode)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("response decoding failed: path='%s', error=%w", path, err)
		}
	}
	return nil
}
