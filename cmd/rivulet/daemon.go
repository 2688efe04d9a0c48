// ABOUTME: Daemon command group: start, stop, status
// ABOUTME: Start runs the update loop; status exits 0 when running, 1 when not

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/rivulet/rivulet/internal/daemon"
	"github.com/rivulet/rivulet/internal/logging"
	"github.com/rivulet/rivulet/internal/refresh"
)

var (
	daemonInterval        string
	daemonLogPath         string
	daemonForeground      bool
	daemonNoInitialUpdate bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the background update daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start periodic updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := daemon.ParseInterval(daemonInterval)
		if err != nil {
			return err
		}

		if !daemonForeground {
			return respawnInBackground()
		}

		if daemonLogPath != "" {
			logFile, err := os.OpenFile(daemonLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()
			os.Stderr = logFile
			logging.Setup()
		}

		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		return daemon.Run(cmd.Context(), a, daemon.Config{
			Interval:      interval,
			InitialUpdate: !daemonNoInitialUpdate,
			Workers:       refresh.DefaultWorkers,
		}, logging.For("daemon"))
	},
}

// respawnInBackground re-executes this command detached with --foreground
func respawnInBackground() error {
	if daemon.IsRunning() {
		return fmt.Errorf("daemon already running")
	}

	args := []string{"daemon", "start", "--foreground", "--interval", daemonInterval}
	if daemonLogPath != "" {
		args = append(args, "--log", daemonLogPath)
	}
	if daemonNoInitialUpdate {
		args = append(args, "--no-initial-update")
	}
	if dbPath != "" {
		args = append(args, "--db", dbPath)
	}

	executable, err := os.Executable()
	if err != nil {
		return err
	}
	child := exec.Command(executable, args...)
	child.Stdout = nil
	child.Stderr = nil
	if err := child.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	// The child owns the PID file from here
	fmt.Printf("daemon started (pid %d, interval %s)\n", child.Process.Pid, daemonInterval)
	return child.Process.Release()
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := daemon.Stop(); err != nil {
			return err
		}
		fmt.Println("daemon stopped")
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if daemon.IsRunning() {
			pid, _ := daemon.ReadPID()
			fmt.Printf("daemon running (pid %d)\n", pid)
			return nil
		}
		fmt.Println("daemon not running")
		// Exit 1 without the usage noise of a normal error
		os.Exit(1)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonStatusCmd)

	daemonStartCmd.Flags().StringVar(&daemonInterval, "interval", "1h", "update interval (30m, 1h, 6h, 1d)")
	daemonStartCmd.Flags().StringVar(&daemonLogPath, "log", "", "log file path (default: stderr)")
	daemonStartCmd.Flags().BoolVar(&daemonForeground, "foreground", false, "run in the foreground")
	daemonStartCmd.Flags().BoolVar(&daemonNoInitialUpdate, "no-initial-update", false, "skip the update on start")
}
