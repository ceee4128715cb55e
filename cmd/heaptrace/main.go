// Command heaptrace replays allocation scripts against a first-fit arena heap
// and prints how the block layout evolves.
package main

func main() {
	execute()
}
