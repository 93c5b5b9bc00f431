package main

import "cxc-checkin/cmd"

func main() {
	cmd.Execute()
}
