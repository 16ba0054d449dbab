// main.go
// transitdesk console sidecar: session, entity administration, calendar and
// map views over the transport backend's REST API.

package main

func main() {
	Execute()
}
