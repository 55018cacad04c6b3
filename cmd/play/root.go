package play

import (
	"os"

	cmdUtil "github.com/ValentinKolb/dHangman/cmd/util"
	"github.com/ValentinKolb/dHangman/rpc/client"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var Logger = logger.GetLogger("cmd")

var (
	playCmdConfig = &common.ClientConfig{}
	PlayCmd       = &cobra.Command{
		Use:   "play",
		Short: "Join a hangman coordinator as a player",
		Long: `Start the interactive hangman client. Type CONNECT to join the coordinator and HELP to see all commands.
The configuration can be set via command line flags or environment variables (e.g. HANGMAN_ENDPOINT=localhost:9091)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	cmdUtil.SetupTransportFlags(PlayCmd, "localhost:9091")
	cmdUtil.SetupLogFlags(PlayCmd, "warn")
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := cmdUtil.ValidateLogging(); err != nil {
		return err
	}
	playCmdConfig = cmdUtil.GetClientConfig()
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	// keep the logs away from the game output
	if err := common.InitLoggersTo(os.Stderr, playCmdConfig.LogLevel, playCmdConfig.LogFormat); err != nil {
		return err
	}

	t, err := cmdUtil.GetClientTransport()
	if err != nil {
		return err
	}

	it := newInterpreter(os.Stdout)
	it.client = client.NewRPCClient(
		*playCmdConfig,
		t,
		cmdUtil.GetSerializer(playCmdConfig.Transport),
		it,
	)

	return it.run(os.Stdin)
}
