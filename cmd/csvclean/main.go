// Command csvclean cleans tabular CSV data.
package main

import (
	"os"

	"github.com/JonMunkholm/csvclean/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
