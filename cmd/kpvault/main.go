// kpvault reads KeePass 2.x kdbx v3 password databases and builds or reads
// the encrypted cache envelope projection described in internal/cacheenvelope.
package main

import "github.com/kpvault/kpvault/internal/cli"

const version = "v0.1"

func main() {
	cli.Execute(version)
}
