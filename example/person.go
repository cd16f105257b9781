package main

//go:generate go run ../cmd/recordstore gen -f person.go -t Person

// Person is the record shared by the demo's views.
type Person struct {
	Name string `store:"name"`
	Age  int    `store:"age"`
	Boss *bool  `store:"boss"`
}
