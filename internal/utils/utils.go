package utils

import "github.com/sirupsen/logrus"

// Must stops the process when a startup step fails.
func Must(log logrus.FieldLogger, err error, step string) {
	if err != nil {
		log.WithError(err).Fatal(step)
	}
}
