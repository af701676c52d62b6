package main

import (
	"context"
	"errors"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Creates the boards and tasks tables. Run once before starting the API
// against a fresh storage account.
func main() {
	_ = godotenv.Load()

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	boardsTable := os.Getenv("BOARDS_TABLE")
	tasksTable := os.Getenv("TASKS_TABLE")
	if connStr == "" || boardsTable == "" || tasksTable == "" {
		log.Fatal("missing storage config")
	}

	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		log.Fatalf("service client: %v", err)
	}

	ctx := context.Background()
	for _, name := range []string{boardsTable, tasksTable} {
		_, err := svc.CreateTable(ctx, name, nil)
		if err != nil {
			var respErr *azcore.ResponseError
			if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
				log.Infof("table %s already exists", name)
				continue
			}
			log.Fatalf("create table %s: %v", name, err)
		}
		log.Infof("table %s created", name)
	}
}
