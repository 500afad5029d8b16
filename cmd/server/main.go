package main

import "gridrelay/server"

func main() {
	server.Main()
}
