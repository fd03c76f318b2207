package main

import "eventhub-backend/cmd"

func main() {
	cmd.Execute()
}
