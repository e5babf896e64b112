package sample_test

import (
	"fmt"

	"example.com/sample"
)

// Greeting someone politely.
func ExampleGreet() {
	fmt.Println(sample.Greet("Ada", false))
	// Output: Hello, Ada
}
