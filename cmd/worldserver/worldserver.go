package main

import (
	"github.com/irikarra/worldlink/components/world"
)

func main() {
	world.Start()
}
