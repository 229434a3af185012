// rtcmcodec decodes and encodes RTCM version 3 messages.
//
// The decode command reads a stream of bytes from a file or the standard
// input, picks out the RTCM3 message frames and writes a readable version
// of each to the standard output.  Anything in the stream that's not RTCM,
// NMEA sentences for example, is shown as a hex dump.  With --hex the input
// is taken to be one hex frame per line instead, which is the form that the
// encoders produce.
//
// The station command reads a config file describing a reference station
// and writes a message type 1005 frame in hex giving its position, or a type
// 1006 if the config gives the antenna height.
//
// The reference command writes a set of known good frames, one of each
// message type that the codec can encode.
//
// Usage:
//
//	rtcmcodec decode [--hex] [--summary] [--verbose] file
//	rtcmcodec station --config station.yaml
//	rtcmcodec reference
//
// Examples:
//
//	rtcmcodec decode testdata.rtcm
//
//	rtcmcodec decode - # take input from the standard input channel.
//
// An example station config:
//
//	station_id: 2003
//	x: 1114104.5999
//	y: -4850729.7108
//	z: 3975521.4643
//	gps: true
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goblimey/rtcm3codec/apps/rtcmcodec/config"
	"github.com/goblimey/rtcm3codec/rtcm/msm"
	"github.com/goblimey/rtcm3codec/rtcm/rtcm3"
	"github.com/goblimey/rtcm3codec/rtcm/type1001"
	"github.com/goblimey/rtcm3codec/rtcm/type1005"
	"github.com/goblimey/rtcm3codec/rtcm/type1019"
	"github.com/goblimey/rtcm3codec/rtcm/type1045"
)

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the command tree.  The commands read from in and
// write to out.  Log messages go to errOut.
func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var verbose bool
	logLevel := slog.LevelInfo

	rootCmd := &cobra.Command{
		Use:           "rtcmcodec",
		Short:         "RTCM version 3 message codec",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: logLevel})
			slog.SetDefault(slog.New(handler))
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging and display")

	var hexInput, summary bool
	decodeCmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Display the messages in a file of RTCM3 data",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileName := "-"
			if len(args) > 0 {
				fileName = args[0]
			}
			reader, closer, err := openFile(fileName, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("cannot open %s - %w", fileName, err)
			}
			defer closer.Close()

			var counts map[int]int
			if hexInput {
				counts, err = HandleHexFrames(cmd.Context(), reader, cmd.OutOrStdout(), logLevel)
			} else {
				counts, err = HandleMessages(reader, cmd.OutOrStdout(), logLevel)
			}
			if err != nil {
				return err
			}

			if summary {
				WriteSummary(cmd.OutOrStdout(), counts)
			}
			return nil
		},
	}
	decodeCmd.Flags().BoolVar(&hexInput, "hex", false, "Input is hex frames, one per line")
	decodeCmd.Flags().BoolVar(&summary, "summary", false, "Finish with a count of each message type")

	var configFile string
	stationCmd := &cobra.Command{
		Use:   "station",
		Short: "Write a message type 1005 or 1006 frame for a reference station",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig(configFile)
			if err != nil {
				return err
			}
			level, _ := cfg.Level()
			if verbose {
				level = slog.LevelDebug
			}
			hexFrame, err := StationFrame(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexFrame)
			if level == slog.LevelDebug {
				fmt.Fprint(cmd.OutOrStdout(), rtcm3.Decode(hexFrame, level).String())
			}
			return nil
		},
	}
	stationCmd.Flags().StringVarP(&configFile, "config", "c", "", "Station config file (YAML or JSON)")
	stationCmd.MarkFlagRequired("config")

	referenceCmd := &cobra.Command{
		Use:   "reference",
		Short: "Write a known good frame of each message type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return WriteReferenceFrames(cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(decodeCmd, stationCmd, referenceCmd)
	return rootCmd
}

// HandleMessages reads the stream of bytes, picks out the messages and
// writes a readable version of each to the writer.  It returns a count of
// each message type.
func HandleMessages(reader io.Reader, writer io.Writer, logLevel slog.Level) (map[int]int, error) {

	counts := make(map[int]int)

	messageChan := make(chan *rtcm3.Message, 2)
	done := make(chan error, 1)
	go func() { done <- DisplayMessages(messageChan, writer) }()

	scanner := rtcm3.NewScanner(reader, logLevel)
	var scanError error
	for {
		message, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			scanError = err
			break
		}
		counts[message.MessageType]++
		messageChan <- message
	}

	close(messageChan)
	if err := <-done; err != nil {
		return counts, err
	}

	return counts, scanError
}

// HandleHexFrames reads hex frames, one per line, decodes them in parallel
// and writes a readable version of each to the writer in the order they
// were read.  Blank lines are ignored.
func HandleHexFrames(ctx context.Context, reader io.Reader, writer io.Writer, logLevel slog.Level) (map[int]int, error) {

	var frames []string
	lines := bufio.NewScanner(reader)
	// A maximum length frame is 1029 bytes, 2058 hex digits.
	lines.Buffer(make([]byte, 4096), 4096)
	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line != "" {
			frames = append(frames, line)
		}
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}

	messages, err := rtcm3.DecodeAll(ctx, frames, logLevel)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, message := range messages {
		counts[message.MessageType]++
		if _, err := fmt.Fprintln(writer, message.String()); err != nil {
			return counts, err
		}
	}

	return counts, nil
}

// DisplayMessages receives messages from the given channel, produces a
// readable display of each and writes them to the writer.  It can be
// run in a goroutine.  It drains the channel even after a write fails.
func DisplayMessages(messageChan <-chan *rtcm3.Message, writer io.Writer) error {
	var writeError error
	for message := range messageChan {
		if writeError != nil {
			continue
		}
		// Decode the message.  (The result is very verbose!)
		display := message.String() + "\n"
		_, writeError = writer.Write([]byte(display))
	}
	return writeError
}

// WriteSummary writes the message counts in message type order.
func WriteSummary(writer io.Writer, counts map[int]int) {
	messageTypes := make([]int, 0, len(counts))
	for messageType := range counts {
		messageTypes = append(messageTypes, messageType)
	}
	sort.Ints(messageTypes)

	for _, messageType := range messageTypes {
		fmt.Fprintf(writer, "message type %4d: %6d\n", messageType, counts[messageType])
	}
}

// StationFrame returns the frame in hex for the configured station, a type
// 1006 if the antenna height is given, otherwise a type 1005.
func StationFrame(cfg *config.Config) (string, error) {
	var message *type1005.Message
	if cfg.AntennaHeight != nil {
		message = type1005.New1006(cfg.StationID, cfg.X, cfg.Y, cfg.Z, *cfg.AntennaHeight,
			cfg.GPS, cfg.Glonass, cfg.Galileo, slog.LevelInfo)
	} else {
		message = type1005.New(cfg.StationID, cfg.X, cfg.Y, cfg.Z,
			cfg.GPS, cfg.Glonass, cfg.Galileo, slog.LevelInfo)
	}
	message.ReferenceStation = cfg.ReferenceStation
	message.SingleReceiverOscillator = cfg.SingleReceiverOscillator
	message.QuarterCycleIndicator = cfg.QuarterCycleIndicator
	return message.Encode()
}

// WriteReferenceFrames writes the reference frame for each message type,
// one per line, in hex.
func WriteReferenceFrames(writer io.Writer) error {
	msmFrame, err := msm.ReferenceFrame()
	if err != nil {
		return err
	}

	frames := []string{
		type1001.ReferenceFrame(),
		type1005.ReferenceFrame(),
		type1019.ReferenceFrame(),
		type1045.ReferenceFrame(),
		msmFrame,
	}

	for _, f := range frames {
		if _, err := fmt.Fprintln(writer, f); err != nil {
			return err
		}
	}
	return nil
}

// openFile opens the given file and returns a Reader connected to it and
// something to close when finished.  If the file name is "-" it returns
// stdin.
func openFile(fileName string, stdin io.Reader) (io.Reader, io.Closer, error) {
	if fileName == "-" {
		return stdin, io.NopCloser(nil), nil
	}

	file, err := os.Open(fileName)
	if err != nil {
		return nil, nil, err
	}

	return file, file, nil
}
