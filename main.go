package main

import "github.com/mtpl/face-attendance/cmd"

func main() {
	cmd.Execute()
}
