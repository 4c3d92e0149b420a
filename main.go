package main

import "github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/cmd"

func main() {
	cmd.Execute()
}
