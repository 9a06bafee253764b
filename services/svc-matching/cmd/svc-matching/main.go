package main

import "github.com/architeacher/logistics/services/svc-matching/internal/runtime"

func main() {
	runtime.New().Run()
}
