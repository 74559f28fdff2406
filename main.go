// Command boatkit fills a spreadsheet column with descriptions of the boat types listed in it.
package main

import "github.com/klytics/boatkit/cmd"

func main() {
	cmd.Execute()
}
