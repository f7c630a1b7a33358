package main

import (
	"os"

	"kuasap-backend/cmd/kuasap-cli/cmd"
)

func main() {
	baseUrl, ok := os.LookupEnv("KUASAP_BASE_URL")
	if ok {
		cmd.BaseUrl = baseUrl
	}
	cmd.Execute()
}
