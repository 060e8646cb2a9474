package main

func main() {
	if dispatcher != nil {
		dispatcher.Start()
		defer dispatcher.Stop()
	}
	if err := GetMainEngine().Run(notifyConfig.Port); err != nil {
		logrusLogger.Fatalf("error running the server: %v", err)
	}
}
