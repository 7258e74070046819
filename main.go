package main

import "github.com/Alijeyrad/spa_backend/cmd"

func main() {
	cmd.Execute()
}
