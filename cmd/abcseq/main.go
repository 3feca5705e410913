// Package main is the entry point for the abcseq CLI
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notefold/abcseq/pkg/abc"
	"github.com/notefold/abcseq/pkg/api"
	"github.com/notefold/abcseq/pkg/melody"
	"github.com/notefold/abcseq/pkg/midifile"
	"github.com/notefold/abcseq/pkg/sequence"
	"github.com/notefold/abcseq/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile string
	tuneTitle  string
	qpm        float64
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "abcseq",
	Short: "Convert between ABC notation, note sequences and MIDI",
	Long: `abcseq is a tool for converting between ABC notation, the JSON
note sequence format and standard MIDI files.

Examples:
  abcseq convert tune.abc -o tune.mid
  abcseq abc2midi tune.abc -o tune.mid --qpm 90
  abcseq midi2abc take.mid -o take.abc --title "My Take"
  abcseq abc2json tune.abc
  abcseq melody chords.mid -o melody.abc
  abcseq tui
  abcseq serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Detects the input and output formats from file extensions (.abc, .mid/.midi, .json) and converts between them.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var abc2midiCmd = &cobra.Command{
	Use:   "abc2midi <input.abc>",
	Short: "Convert ABC notation to a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runABCToMIDI,
}

var midi2abcCmd = &cobra.Command{
	Use:   "midi2abc <input.mid>",
	Short: "Transcribe a MIDI file to ABC notation",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDIToABC,
}

var abc2jsonCmd = &cobra.Command{
	Use:   "abc2json <input.abc>",
	Short: "Parse ABC notation into a JSON note sequence",
	Args:  cobra.ExactArgs(1),
	RunE:  runABCToJSON,
}

var json2abcCmd = &cobra.Command{
	Use:   "json2abc <input.json>",
	Short: "Serialize a JSON note sequence as ABC notation",
	Args:  cobra.ExactArgs(1),
	RunE:  runJSONToABC,
}

var melodyCmd = &cobra.Command{
	Use:   "melody <input>",
	Short: "Extract a monophonic melody line",
	Long:  `Reduces a polyphonic input (.abc, .mid/.midi or .json) to a single melodic line and writes it as ABC notation.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMelody,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().Float64Var(&qpm, "qpm", sequence.DefaultQPM, "Tempo in quarter notes per minute")
	rootCmd.PersistentFlags().StringVar(&tuneTitle, "title", "", "Tune title for the T: header")

	for _, cmd := range []*cobra.Command{convertCmd, abc2midiCmd, midi2abcCmd, abc2jsonCmd, json2abcCmd, melodyCmd} {
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default: stdout or input name with new extension)")
	}
	_ = convertCmd.MarkFlagRequired("output")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(abc2midiCmd)
	rootCmd.AddCommand(midi2abcCmd)
	rootCmd.AddCommand(abc2jsonCmd)
	rootCmd.AddCommand(json2abcCmd)
	rootCmd.AddCommand(melodyCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	seq, err := readSequence(args[0])
	if err != nil {
		return err
	}
	return writeSequence(seq, outputFile)
}

func runABCToMIDI(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	seq, err := abc.Parse(string(data), qpm)
	if err != nil {
		return err
	}
	if len(seq.Notes) == 0 {
		return fmt.Errorf("no valid notes in %s", args[0])
	}
	out := defaultOutput(args[0], ".mid")
	if err := midifile.WriteFile(seq, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d notes)\n", out, len(seq.Notes))
	return nil
}

func runMIDIToABC(cmd *cobra.Command, args []string) error {
	seq, err := midifile.ReadFile(args[0])
	if err != nil {
		return err
	}
	return emitText(abc.Serialize(seq, tuneTitle), defaultOutput(args[0], ".abc"))
}

func runABCToJSON(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	seq, err := abc.Parse(string(data), qpm)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		return err
	}
	return emitText(string(encoded)+"\n", outputFile)
}

func runJSONToABC(cmd *cobra.Command, args []string) error {
	seq, err := readJSONSequence(args[0])
	if err != nil {
		return err
	}
	return emitText(abc.Serialize(seq, tuneTitle), defaultOutput(args[0], ".abc"))
}

func runMelody(cmd *cobra.Command, args []string) error {
	seq, err := readSequence(args[0])
	if err != nil {
		return err
	}
	line := melody.Extract(seq)
	return emitText(abc.Serialize(line, tuneTitle), outputFile)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting abcseq API server on port %d...\n", serverPort)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", serverPort)
	return api.StartServer(serverPort)
}

// readSequence loads a note sequence from any supported input format,
// selected by file extension.
func readSequence(path string) (*sequence.NoteSequence, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".abc", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return abc.Parse(string(data), qpm)
	case ".mid", ".midi":
		return midifile.ReadFile(path)
	case ".json":
		return readJSONSequence(path)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

// writeSequence stores a note sequence in the format selected by the
// output file's extension.
func writeSequence(seq *sequence.NoteSequence, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".abc", ".txt":
		return emitText(abc.Serialize(seq, tuneTitle), path)
	case ".mid", ".midi":
		return midifile.WriteFile(seq, path)
	case ".json":
		encoded, err := json.MarshalIndent(seq, "", "  ")
		if err != nil {
			return err
		}
		return emitText(string(encoded)+"\n", path)
	default:
		return fmt.Errorf("unsupported output format: %s", path)
	}
}

func readJSONSequence(path string) (*sequence.NoteSequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seq := sequence.New()
	if err := json.Unmarshal(data, seq); err != nil {
		return nil, fmt.Errorf("failed to parse sequence JSON: %w", err)
	}
	return seq, nil
}

// emitText writes to the given path, or stdout when the path is empty.
func emitText(text, path string) error {
	if path == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func defaultOutput(input, ext string) string {
	if outputFile != "" {
		return outputFile
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}
