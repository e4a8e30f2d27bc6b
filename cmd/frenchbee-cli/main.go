package main

import (
	"context"
	"frenchbee-client/cmd/frenchbee-cli/commands"
	"frenchbee-client/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "frenchbee-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
