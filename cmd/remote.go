package cmd

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hirochachacha/go-smb2"
)

// fetchRemoteDump copies one dump file from an SMB share to a local temp
// file and returns its path. Devkit captures often land on a share before
// anyone can analyze them; this saves the manual copy step.
func fetchRemoteDump(host, user, pass, share, remotePath string) (string, error) {
	if host == "" || remotePath == "" {
		return "", fmt.Errorf("remote fetch needs --host and --path")
	}

	conn, err := net.DialTimeout("tcp", host+":445", 5*time.Second)
	if err != nil {
		return "", fmt.Errorf("failed to connect to host: %w", err)
	}
	defer conn.Close()

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     user,
			Password: pass,
		},
	}

	session, err := d.Dial(conn)
	if err != nil {
		return "", fmt.Errorf("failed to establish SMB session: %w", err)
	}
	defer session.Logoff()

	fs, err := session.Mount(share)
	if err != nil {
		return "", fmt.Errorf("failed to mount %s share: %w", share, err)
	}
	defer fs.Umount()

	remoteFile, err := fs.Open(remotePath)
	if err != nil {
		return "", fmt.Errorf("failed to open remote file: %w", err)
	}
	defer remoteFile.Close()

	localName := strings.ReplaceAll(strings.TrimPrefix(remotePath, `\`), `\`, `_`)
	localPath := filepath.Join(os.TempDir(), "x360carve_"+filepath.Base(localName))
	outFile, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %w", err)
	}

	_, err = io.Copy(outFile, remoteFile)
	cerr := outFile.Close()
	if err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if cerr != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to close local file: %w", cerr)
	}

	fmt.Printf("[+] Fetched %s from %s\n", remotePath, host)
	return localPath, nil
}
