// cmd/tools/registry-validator/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"bookreview-recommender/internal/common/validation"
	"bookreview-recommender/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listPath := listCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	checkPath := checkCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	taskType := checkCmd.String("task", "", "Task type whose input schema to apply")
	inputFile := checkCmd.String("input", "", "JSON file holding sample job variables")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		err = validateRegistry(*validatePath)
	case "list":
		listCmd.Parse(os.Args[2:])
		err = listActivities(*listPath)
	case "check":
		checkCmd.Parse(os.Args[2:])
		if *taskType == "" || *inputFile == "" {
			fmt.Println("Error: task and input are required for check.")
			checkCmd.Usage()
			os.Exit(1)
		}
		err = checkInput(*checkPath, *taskType, *inputFile)
	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func listActivities(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	activities := append([]registry.Activity(nil), reg.Activities...)
	sort.Slice(activities, func(i, j int) bool { return activities[i].TaskType < activities[j].TaskType })
	for _, a := range activities {
		fmt.Printf("%-30s %-16s %s\n", a.TaskType, a.Category, a.DisplayName)
	}
	return nil
}

func checkInput(path, taskType, inputFile string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	activity, err := reg.FindByTaskType(taskType)
	if err != nil {
		return err
	}
	if activity.InputSchema == nil {
		return fmt.Errorf("activity %s declares no input schema", taskType)
	}

	raw, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	result, err := validation.ValidateAgainstSchema(activity.InputSchema, doc)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("input does not match schema: %s", result.Summary())
	}
	fmt.Printf("Input is valid for %s.\n", taskType)
	return nil
}

func help() {
	fmt.Println("Usage: registry-validator <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  validate  Check required fields, uniqueness and schemas")
	fmt.Println("  list      Print every registered activity")
	fmt.Println("  check     Validate sample job variables against a task's input schema")
}
