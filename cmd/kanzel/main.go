// Command kanzel is the terminal client for the kanzel gateway stack.
// It talks directly to the chat endpoint and the tool-resource server
// using the same orchestration engine as the HTTP gateway.
package main

func main() {
	Execute()
}
