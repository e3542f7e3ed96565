package main

import "github.com/Abeelha/portaljs-World-Sustainability-Dataset/cmd"

func main() {
	cmd.Execute()
}
