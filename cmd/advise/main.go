// Command advise sends advice payloads to the service or evaluates them locally.
package main

import "github.com/okian/overcall/internal/advisecli"

func main() {
	advisecli.Main()
}
