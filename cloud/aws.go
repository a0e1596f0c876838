// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"
)

// AWSProfile names the shared-credentials profile used when a local
// ~/.aws/credentials file is present.
const AWSProfile = "kenshimp"

func getAWSSession(region string) (*session.Session, error) {
	var creds *credentials.Credentials
	if usr, err := user.Current(); err == nil {
		path := fmt.Sprintf("%s/.aws/credentials", usr.HomeDir)
		if _, statErr := os.Stat(path); statErr == nil {
			creds = credentials.NewSharedCredentials(path, AWSProfile)
		}
	}
	if creds == nil {
		creds = credentials.NewCredentials(&ec2rolecreds.EC2RoleProvider{
			Client: ec2metadata.New(session.New(aws.NewConfig())),
		})
	}
	return session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: creds,
	})
}

// publicIP asks a well-known echo service for this host's public
// address, used to register the server for direct-connect discovery.
// Times out quickly: a deployment without internet egress simply runs
// without the discovery feature.
func publicIP() (net.IP, error) {
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://checkip.amazonaws.com")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	s := strings.TrimSpace(string(body))
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("cloud: could not parse public IP response %q", s)
	}
	return ip, nil
}
