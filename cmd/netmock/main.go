// netmock CLI - validate and exercise netmock settings files
package main

import "github.com/getmockd/netmock/pkg/cli"

func main() {
	cli.Execute()
}
