package lock

// ReleaseScript exposes releaseScript to the external lock_test package.
const ReleaseScript = releaseScript
