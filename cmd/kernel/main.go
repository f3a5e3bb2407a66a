// Command kernel is the bare-metal image. The boot code (entry.S and the
// linker script) sets up a stack and calls KMain; main itself only exists
// so the package links.
package main

func main() {}
