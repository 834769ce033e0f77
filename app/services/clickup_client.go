package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/merchantops/support-console/config"
)

// ClickUpService handles task creation and status sync against the ClickUp API
type ClickUpService interface {
	CreateTask(ctx context.Context, task ClickUpTaskInput) (*ClickUpTask, error)
	FetchTask(ctx context.Context, taskID string) (*ClickUpTask, error)
	FetchListFields(ctx context.Context) ([]ClickUpField, error)
	UploadAttachment(ctx context.Context, taskID, filename string, content io.Reader) error
}

// ClickUpTaskInput carries the fields for a new task
type ClickUpTaskInput struct {
	Name         string
	Description  string
	CustomFields map[string]string
}

// ClickUpTask represents a task returned by the ClickUp API
type ClickUpTask struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Status struct {
		Status string `json:"status"`
	} `json:"status"`
}

// ClickUpField describes a custom field of a list
type ClickUpField struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	TypeConfig struct {
		Options []ClickUpFieldOption `json:"options"`
	} `json:"type_config"`
}

// ClickUpFieldOption is one choice of a dropdown field
type ClickUpFieldOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ClickUpFieldValue struct {
	ID    string      `json:"id"`
	Value interface{} `json:"value"`
}

type clickupCreateTaskRequest struct {
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	CustomFields []ClickUpFieldValue `json:"custom_fields,omitempty"`
}

// ClickUpServiceImpl implements ClickUpService
type ClickUpServiceImpl struct {
	config *config.ClickUpConfig
	client *http.Client
}

// NewClickUpService creates a new ClickUp service instance
func NewClickUpService(cfg *config.ClickUpConfig) ClickUpService {
	return &ClickUpServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (s *ClickUpServiceImpl) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal ClickUp request: %w", err)
		}
		payload = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", s.config.APIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ClickUp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ClickUp returned status %d: %s", resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode ClickUp response: %w", err)
		}
	}
	return nil
}

// CreateTask creates a task in the configured list, resolving dropdown
// custom fields to option ids first
func (s *ClickUpServiceImpl) CreateTask(ctx context.Context, task ClickUpTaskInput) (*ClickUpTask, error) {
	fields, err := s.FetchListFields(ctx)
	if err != nil {
		return nil, err
	}

	values, err := ResolveCustomFields(fields, task.CustomFields, s.config.StrictFields)
	if err != nil {
		return nil, err
	}

	request := clickupCreateTaskRequest{
		Name:         task.Name,
		Description:  task.Description,
		CustomFields: values,
	}
	var created ClickUpTask
	path := fmt.Sprintf("/list/%s/task", s.config.ListID)
	if err := s.doJSON(ctx, "POST", path, request, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// FetchTask retrieves a single task by id
func (s *ClickUpServiceImpl) FetchTask(ctx context.Context, taskID string) (*ClickUpTask, error) {
	var task ClickUpTask
	if err := s.doJSON(ctx, "GET", "/task/"+taskID, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// FetchListFields retrieves the custom field definitions of the configured list
func (s *ClickUpServiceImpl) FetchListFields(ctx context.Context) ([]ClickUpField, error) {
	var result struct {
		Fields []ClickUpField `json:"fields"`
	}
	path := fmt.Sprintf("/list/%s/field", s.config.ListID)
	if err := s.doJSON(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return result.Fields, nil
}

// UploadAttachment attaches a file to an existing task
func (s *ClickUpServiceImpl) UploadAttachment(ctx context.Context, taskID, filename string, content io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("attachment", filename)
	if err != nil {
		return fmt.Errorf("failed to build attachment form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read attachment content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize attachment form: %w", err)
	}

	url := fmt.Sprintf("%s/task/%s/attachment", s.config.BaseURL, taskID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", s.config.APIToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("attachment upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("attachment upload rejected with status %d", resp.StatusCode)
	}
	return nil
}

// ResolveCustomFields maps field-name to raw-value pairs onto the list's field
// definitions. Dropdown values resolve by option id, then by case-insensitive
// option name. An unmatched dropdown value is skipped in strict mode and sent
// raw otherwise. Unknown field names are always skipped.
func ResolveCustomFields(fields []ClickUpField, values map[string]string, strict bool) ([]ClickUpFieldValue, error) {
	byName := make(map[string]ClickUpField, len(fields))
	for _, f := range fields {
		byName[strings.ToLower(f.Name)] = f
	}

	resolved := make([]ClickUpFieldValue, 0, len(values))
	for name, raw := range values {
		field, ok := byName[strings.ToLower(name)]
		if !ok {
			continue
		}
		if field.Type != "drop_down" {
			resolved = append(resolved, ClickUpFieldValue{ID: field.ID, Value: raw})
			continue
		}

		optionID, matched := resolveDropdownOption(field.TypeConfig.Options, raw)
		if matched {
			resolved = append(resolved, ClickUpFieldValue{ID: field.ID, Value: optionID})
			continue
		}
		if strict {
			continue
		}
		resolved = append(resolved, ClickUpFieldValue{ID: field.ID, Value: raw})
	}
	return resolved, nil
}

func resolveDropdownOption(options []ClickUpFieldOption, raw string) (string, bool) {
	for _, opt := range options {
		if opt.ID == raw {
			return opt.ID, true
		}
	}
	for _, opt := range options {
		if strings.EqualFold(opt.Name, raw) {
			return opt.ID, true
		}
	}
	return "", false
}

// MockClickUpService implements ClickUpService for testing
type MockClickUpService struct {
	Fields       []ClickUpField
	Tasks        map[string]*ClickUpTask
	CreatedTasks []ClickUpTaskInput
	Attachments  map[string][]string
	CreateErr    error
	FetchErr     error
	UploadErr    error
	nextID       int
}

// NewMockClickUpService creates a new mock ClickUp service
func NewMockClickUpService() *MockClickUpService {
	return &MockClickUpService{
		Tasks:       make(map[string]*ClickUpTask),
		Attachments: make(map[string][]string),
	}
}

// CreateTask records a mock task creation
func (m *MockClickUpService) CreateTask(ctx context.Context, task ClickUpTaskInput) (*ClickUpTask, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	m.CreatedTasks = append(m.CreatedTasks, task)
	created := &ClickUpTask{
		ID:   fmt.Sprintf("mock-task-%d", m.nextID),
		Name: task.Name,
		URL:  fmt.Sprintf("https://app.clickup.com/t/mock-task-%d", m.nextID),
	}
	created.Status.Status = "to do"
	m.Tasks[created.ID] = created
	return created, nil
}

// FetchTask retrieves a mock task
func (m *MockClickUpService) FetchTask(ctx context.Context, taskID string) (*ClickUpTask, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	task, ok := m.Tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("ClickUp returned status 404: task %s not found", taskID)
	}
	return task, nil
}

// FetchListFields returns the configured mock fields
func (m *MockClickUpService) FetchListFields(ctx context.Context) ([]ClickUpField, error) {
	return m.Fields, nil
}

// UploadAttachment records a mock attachment upload
func (m *MockClickUpService) UploadAttachment(ctx context.Context, taskID, filename string, content io.Reader) error {
	if m.UploadErr != nil {
		return m.UploadErr
	}
	m.Attachments[taskID] = append(m.Attachments[taskID], filename)
	return nil
}
