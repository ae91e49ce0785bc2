package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housepredict/housing"
)

func writeConfig(t *testing.T, modelDir string) string {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HOUSEPREDICT_MODEL_DIR", "")
	t.Setenv("HOUSEPREDICT_LOG_LEVEL", "")

	dir, err := filepath.Abs(modelDir)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "models:\n  dir: " + dir + "\nbatch:\n  workers: 2\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	cfg := writeConfig(t, "../../housing/testdata")

	out, err := runCLI(t, "", "--config", cfg, "predict",
		"--size", "1000", "--rooms", "2", "--location", "3", "--age", "30")
	require.NoError(t, err)

	var pred housing.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &pred))
	assert.Equal(t, 217000.0, pred.Predictions.Price)
	assert.Equal(t, "Cheap", pred.Predictions.CategoryLogistic)
	assert.Equal(t, 1000.0, pred.Input.Size)
}

func TestPredictCommandRejectsInput(t *testing.T) {
	cfg := writeConfig(t, "../../housing/testdata")

	_, err := runCLI(t, "", "--config", cfg, "predict",
		"--size", "1000", "--rooms", "abc", "--location", "3", "--age", "30")
	require.Error(t, err)
	assert.Equal(t, "All fields must be numbers", err.Error())

	_, err = runCLI(t, "", "--config", cfg, "predict", "--size", "1000", "--rooms", "2", "--age", "30")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Location 1-10")
}

func TestBatchCommand(t *testing.T) {
	cfg := writeConfig(t, "../../housing/testdata")

	out, err := runCLI(t, "", "--config", cfg, "batch", "../../housing/testdata/houses.csv")
	require.NoError(t, err)

	var res housing.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.TotalRows)
	require.Len(t, res.Results, 3)
	assert.NotNil(t, res.Results[0].Predictions)
	assert.Equal(t, "Invalid values in this row", res.Results[1].Error)
}

func TestBatchCommandStdin(t *testing.T) {
	cfg := writeConfig(t, "../../housing/testdata")

	out, err := runCLI(t, "size,rooms,location,age\n3600,5,9,5\n", "--config", cfg, "batch", "-")
	require.NoError(t, err)

	var res housing.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Results, 1)
	require.NotNil(t, res.Results[0].Predictions)
	assert.Equal(t, "Expensive", res.Results[0].Predictions.CategoryLogistic)
}

func TestBatchCommandErrors(t *testing.T) {
	cfg := writeConfig(t, "../../housing/testdata")

	_, err := runCLI(t, "size,rooms\n1,2\n", "--config", cfg, "batch", "-")
	require.Error(t, err)
	assert.Equal(t, "CSV must contain columns: size, rooms, location, age", err.Error())

	_, err = runCLI(t, "", "--config", cfg, "batch", "does-not-exist.csv")
	require.Error(t, err)

	_, err = runCLI(t, "", "--config", cfg, "batch")
	require.Error(t, err)
}

func TestHealthCommand(t *testing.T) {
	cfg := writeConfig(t, "../../housing/testdata")
	out, err := runCLI(t, "", "--config", cfg, "health", "--strict")
	require.NoError(t, err)

	var h housing.Health
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.ModelsLoaded)

	empty := writeConfig(t, t.TempDir())
	out, err = runCLI(t, "", "--config", empty, "health")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	assert.False(t, h.ModelsLoaded)

	_, err = runCLI(t, "", "--config", empty, "health", "--strict")
	assert.Error(t, err)
}

func TestUnknownConfigFile(t *testing.T) {
	writeConfig(t, "../../housing/testdata")
	_, err := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "health")
	assert.Error(t, err)
}

func TestEvaluateCommand(t *testing.T) {
	cfg := writeConfig(t, "../../housing/testdata")

	out, err := runCLI(t, "", "--config", cfg, "evaluate", "../../housing/testdata/houses_labelled.csv")
	require.NoError(t, err)

	var ev housing.Evaluation
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.Equal(t, 4, ev.Rows)
	assert.Equal(t, 2, ev.Scored)
	require.NotNil(t, ev.Logistic)
	assert.Equal(t, 1.0, ev.Logistic.Accuracy)

	_, err = runCLI(t, "size,rooms,location,age\n1000,2,3,30\n", "--config", cfg, "evaluate", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
}
